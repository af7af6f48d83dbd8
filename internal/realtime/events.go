package realtime

// Wire events exchanged with the backend. The backend owns these names.
const (
	wireAuth            = "auth-cajero"
	wireAuthResult      = "auth-result"
	wireJoinDashboard   = "unirse-dashboard"
	wireDashboardJoined = "dashboard-conectado"
	wireStateUpdated    = "estado-actualizado"
	wireFullState       = "estado-completo"
	wireStatistics      = "estadisticas"
	wireSessionReplaced = "session-replaced"
)

// Events the manager emits to its subscribers. Server pushes are also
// relayed under their wire names, so a subscriber may listen on either.
const (
	EventConnected        = "connected"
	EventDisconnected     = "disconnected"
	EventError            = "error"
	EventAuthenticated    = "authenticated"
	EventAuthError        = "auth-error"
	EventSessionReplaced  = "session-replaced"
	EventDashboardJoined  = "dashboard-joined"
	EventFullStateUpdated = "full-state-updated"
	EventStatsUpdate      = "stats-update"
	EventTransactionUpdate = "transaction-update"
	EventConnectionStats  = "connection-stats"
	EventNotification     = "notification"
)

// relayAliases maps backend wire events onto the manager's stable event
// names. Wire events without an alias are relayed under their own name.
var relayAliases = map[string]string{
	wireDashboardJoined: EventDashboardJoined,
	wireFullState:       EventFullStateUpdated,
	wireStateUpdated:    EventStatsUpdate,
	wireStatistics:      EventStatsUpdate,
}
