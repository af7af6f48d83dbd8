package api

import (
	"encoding/json"
	"time"
)

// JSON field names mirror the backend wire schema, which is Spanish-named and
// backend-owned.

// Transaction is one ledger entry as the backend reports it.
type Transaction struct {
	ID        string          `json:"_id"`
	Type      string          `json:"tipo"`
	Category  string          `json:"categoria"`
	Status    string          `json:"estado"`
	Amount    int64           `json:"monto"`
	PlayerID  string          `json:"jugadorId,omitempty"`
	CashierID string          `json:"cajeroId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Details   json.RawMessage `json:"detalles,omitempty"`
}

// Pagination describes the window of a paginated listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"pagina"`
	Limit      int `json:"limite"`
	TotalPages int `json:"totalPaginas"`
}

// TransactionPage is a filtered, paginated transaction listing.
type TransactionPage struct {
	Transactions []Transaction `json:"transacciones"`
	Pagination   Pagination    `json:"paginacion"`
}

// TransactionFilters narrow the admin transaction listing. Zero values are
// omitted from the query string.
type TransactionFilters struct {
	Type     string
	Category string
	Status   string
	From     string
	To       string
	Page     int
	Limit    int
}

// ConnectionCounts summarizes live connections.
type ConnectionCounts struct {
	TotalConnections  int `json:"totalConexiones"`
	PlayersConnected  int `json:"jugadoresConectados"`
	CashiersConnected int `json:"cajerosConectados"`
}

// ConnectionDetails breaks cashier availability down.
type ConnectionDetails struct {
	CashiersAvailable  int `json:"cajerosDisponibles"`
	CashiersBusy       int `json:"cajerosOcupados"`
	ActiveTransactions int `json:"transaccionesActivas"`
}

// ConnectionStats is the live connection snapshot served by the backend and
// pushed over the realtime channel.
type ConnectionStats struct {
	Connections ConnectionCounts  `json:"conexiones"`
	Details     ConnectionDetails `json:"detalles"`
}

// GlobalStats is the aggregate dashboard snapshot. Beyond the typed fields
// the backend is free to add keys, kept in Extra for display.
type GlobalStats struct {
	TotalPlayers       int             `json:"totalJugadores"`
	TotalCashiers      int             `json:"totalCajeros"`
	TotalTransactions  int             `json:"totalTransacciones"`
	TotalVolume        int64           `json:"volumenTotal"`
	PendingWithdrawals int             `json:"retirosPendientes"`
	Extra              json.RawMessage `json:"-"`
}

// Admin is an administrator account.
type Admin struct {
	ID       string    `json:"_id"`
	FullName string    `json:"nombreCompleto"`
	Email    string    `json:"email"`
	Role     string    `json:"rol"`
	Active   bool      `json:"activo"`
	Created  time.Time `json:"createdAt"`
}

// NewAdmin is the creation payload for an administrator.
type NewAdmin struct {
	FullName string `json:"nombreCompleto"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"rol"`
}

// BankAccount identifies where a cashier settles withdrawals.
type BankAccount struct {
	Bank   string `json:"banco"`
	Number string `json:"numero,omitempty"`
	Phone  string `json:"telefono,omitempty"`
}

// Cashier is a cashier account.
type Cashier struct {
	ID           string      `json:"_id"`
	FullName     string      `json:"nombreCompleto"`
	Email        string      `json:"email"`
	ContactPhone string      `json:"telefonoContacto,omitempty"`
	BankAccount  BankAccount `json:"cuentaBancaria,omitempty"`
	Active       bool        `json:"activo"`
	Created      time.Time   `json:"createdAt"`
}

// NewCashier is the creation payload for a cashier.
type NewCashier struct {
	FullName     string      `json:"nombreCompleto"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	ContactPhone string      `json:"telefonoContacto,omitempty"`
	BankAccount  BankAccount `json:"cuentaBancaria,omitempty"`
}

// ValidRange bounds a numeric general-config entry.
type ValidRange struct {
	Min *float64 `json:"minimo,omitempty"`
	Max *float64 `json:"maximo,omitempty"`
}

// ConfigEntry is one general system setting.
type ConfigEntry struct {
	Key         string      `json:"clave"`
	Value       interface{} `json:"valor"`
	Category    string      `json:"categoria,omitempty"`
	Description string      `json:"descripcion,omitempty"`
	DataType    string      `json:"tipoDato,omitempty"`
	ValidRange  *ValidRange `json:"rangoValido,omitempty"`
}
