package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/store/postgres"
	"github.com/qartha/idfportal/internal/table"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "idfctl",
		Short:        "Administer the IDF documentation portal",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newAddUserCmd(),
		newDevicesCmd(),
		newTableCmd(),
	)
	return root
}

// openService loads configuration from the environment and connects a
// service to the database. The returned func closes the pool.
func openService(ctx context.Context) (*core.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	catalog, err := config.LoadCatalog(cfg.Catalog.File)
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	svc, err := core.NewService(postgres.New(pool), catalog, core.Options{
		StaticDir:      cfg.Static.Dir,
		PublicBaseURL:  cfg.Static.PublicBaseURL,
		MaxUploadBytes: cfg.Upload.MaxFileSize,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return svc, pool.Close, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			if err := postgres.Migrate(cmd.Context(), cfg.Database.URL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}

func newAddUserCmd() *cobra.Command {
	var in core.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create a portal account",
		Long: `Create a portal account. The password is read from --password or,
when omitted, from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				in.Password = pw
			}
			in.Role = core.Role(role)

			svc, closeDB, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			u, err := svc.CreateUser(cmd.Context(), in)
			if err != nil {
				return errors.New(core.FormatUserError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (id %d)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(core.RoleVisitor), "admin or visitor")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, 4096)); err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(buf.String(), "\n")
	return strings.TrimRight(line, "\r"), nil
}

func newDevicesCmd() *cobra.Command {
	devices := &cobra.Command{
		Use:   "devices",
		Short: "Device inventory tools",
	}

	var out string
	template := &cobra.Command{
		Use:   "template",
		Short: "Write the device CSV template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				_, err := cmd.OutOrStdout().Write(core.DeviceTemplate())
				return err
			}
			return os.WriteFile(out, core.DeviceTemplate(), 0o644)
		},
	}
	template.Flags().StringVarP(&out, "output", "o", "", "write to a file instead of stdout")

	var cluster, project, code string
	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Replace the devices of an IDF from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			svc, closeDB, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := svc.ImportDevicesCSV(cmd.Context(), cluster, project, code, core.Upload{
				Filename:    filepath.Base(args[0]),
				ContentType: "text/csv",
				Body:        f,
			})
			if err != nil {
				return errors.New(core.FormatUserError(err))
			}
			printImportResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	importCmd.Flags().StringVar(&cluster, "cluster", "", "cluster name (required)")
	importCmd.Flags().StringVar(&project, "project", "", "project name or folder (required)")
	importCmd.Flags().StringVar(&code, "code", "", "IDF code (required)")
	for _, name := range []string{"cluster", "project", "code"} {
		_ = importCmd.MarkFlagRequired(name)
	}

	devices.AddCommand(template, importCmd)
	return devices
}

func printImportResult(w io.Writer, res *core.DeviceImportResult) {
	fmt.Fprintln(w, res.Message)
	if len(res.Failed) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tREASON")
	for _, f := range res.Failed {
		fmt.Fprintf(tw, "%d\t%s\n", f.Line, f.Reason)
	}
	_ = tw.Flush()
}

func newTableCmd() *cobra.Command {
	tbl := &cobra.Command{
		Use:   "table",
		Short: "Offline fiber table tools",
	}

	var asJSON bool
	health := &cobra.Command{
		Use:   "health <file.json>",
		Short: "Validate a table (or an IDF record holding one) and print its health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, err := loadTable(data)
			if err != nil {
				return err
			}
			h := table.HealthOf(t)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(h)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "level: %s\n", h.Level)
			fmt.Fprintf(w, "rows: %d\n", len(t.Rows))
			fmt.Fprintf(w, "ok=%d revision=%d falla=%d libre=%d reservado=%d\n",
				h.Counts.OK, h.Counts.Revision, h.Counts.Falla, h.Counts.Libre, h.Counts.Reservado)
			return nil
		},
	}
	health.Flags().BoolVar(&asJSON, "json", false, "print health as JSON")

	tbl.AddCommand(health)
	return tbl
}

// loadTable accepts either a bare table or an IDF record with a "table"
// field, and validates its columns.
func loadTable(data []byte) (table.Table, error) {
	var probe struct {
		Table   *table.Table    `json:"table"`
		Columns json.RawMessage `json:"columns"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return table.Table{}, fmt.Errorf("parse table: %w", err)
	}

	var t table.Table
	switch {
	case probe.Columns != nil:
		if err := json.Unmarshal(data, &t); err != nil {
			return table.Table{}, fmt.Errorf("parse table: %w", err)
		}
	case probe.Table != nil:
		t = *probe.Table
	default:
		return table.Table{}, errors.New("file holds neither a table nor an IDF with a table")
	}
	return table.Replace(table.Table{}, t)
}
