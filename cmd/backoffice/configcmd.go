package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/elpatio/backoffice/internal/configedit"
	"github.com/elpatio/backoffice/internal/configfield"
	"github.com/elpatio/backoffice/internal/permissions"
)

// cmdConfig works on the general settings namespace.
func cmdConfig(e *env, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: config list|get|set")
	}
	switch args[0] {
	case "list":
		return configList(e)
	case "get":
		fs := flag.NewFlagSet("config get", flag.ExitOnError)
		key := fs.String("key", "", "setting key")
		fs.Parse(args[1:])
		return configGet(e, *key)
	case "set":
		fs := flag.NewFlagSet("config set", flag.ExitOnError)
		key := fs.String("key", "", "setting key")
		value := fs.String("value", "", "new value")
		fs.Parse(args[1:])
		return configSet(e, *key, *value)
	}
	return fmt.Errorf("unknown config subcommand %q", args[0])
}

func configList(e *env) error {
	if err := requirePermission(e, permissions.ConfigView); err != nil {
		return err
	}
	ctx, cancel := opCtx(e)
	defer cancel()
	entries, err := e.client.Configs(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tTYPE\tCATEGORY")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", entry.Key, entry.Value, entry.DataType, entry.Category)
	}
	return w.Flush()
}

func configGet(e *env, key string) error {
	if key == "" {
		return fmt.Errorf("-key is required")
	}
	if err := requirePermission(e, permissions.ConfigView); err != nil {
		return err
	}
	ctx, cancel := opCtx(e)
	defer cancel()
	entry, err := e.client.Config(ctx, key)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %v\n", entry.Key, entry.Value)
	if entry.Description != "" {
		fmt.Println(entry.Description)
	}
	return nil
}

func configSet(e *env, key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("-key and -value are required")
	}
	if err := requirePermission(e, permissions.ConfigModify); err != nil {
		return err
	}

	ctx, cancel := opCtx(e)
	defer cancel()
	entries, err := e.client.Configs(ctx)
	if err != nil {
		return err
	}

	editor := configedit.New(
		configedit.GeneralConfigUpdater{Client: e.client},
		printNotification,
		e.log.WithField("module", "configedit"),
	)
	editor.Load(configedit.FieldsFromEntries(entries))

	fieldKey := configedit.TypeGeneral + "." + key
	if err := editor.BeginEdit(fieldKey); err != nil {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := editor.UpdateValue(fieldKey, value); err != nil {
		return err
	}
	return editor.Save(ctx, fieldKey)
}

// cmdPayments works on the payments configuration namespace.
func cmdPayments(e *env, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payments list|set")
	}
	switch args[0] {
	case "list":
		return paymentsList(e)
	case "set":
		fs := flag.NewFlagSet("payments set", flag.ExitOnError)
		configType := fs.String("type", "", "configuration group (precios|limites|comisiones|moneda)")
		key := fs.String("key", "", "dotted key within the group")
		value := fs.String("value", "", "new value (major currency units for monetary fields)")
		fs.Parse(args[1:])
		return paymentsSet(e, *configType, *key, *value)
	}
	return fmt.Errorf("unknown payments subcommand %q", args[0])
}

func paymentsList(e *env) error {
	if err := requirePermission(e, permissions.ConfigView); err != nil {
		return err
	}
	ctx, cancel := opCtx(e)
	defer cancel()
	raw, err := e.client.PaymentConfig(ctx)
	if err != nil {
		return err
	}
	fields, err := configedit.FlattenPaymentConfig(raw)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tKEY\tVALUE")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Type, f.Key, configfield.Format(f.Class, f.Value))
	}
	return w.Flush()
}

func paymentsSet(e *env, configType, key, value string) error {
	if configType == "" || key == "" || value == "" {
		return fmt.Errorf("-type, -key and -value are required")
	}
	if err := requirePermission(e, permissions.ConfigModify); err != nil {
		return err
	}

	ctx, cancel := opCtx(e)
	defer cancel()
	raw, err := e.client.PaymentConfig(ctx)
	if err != nil {
		return err
	}
	fields, err := configedit.FlattenPaymentConfig(raw)
	if err != nil {
		return err
	}

	editor := configedit.New(e.client, printNotification, e.log.WithField("module", "configedit"))
	editor.Load(fields)

	fieldKey := configType + "." + key
	if err := editor.BeginEdit(fieldKey); err != nil {
		return fmt.Errorf("unknown payment setting %q", fieldKey)
	}
	if err := editor.UpdateValue(fieldKey, value); err != nil {
		return err
	}
	return editor.Save(ctx, fieldKey)
}

func printNotification(level, message string) {
	if level == "error" {
		fmt.Fprintln(os.Stderr, message)
		return
	}
	fmt.Println(message)
}
