package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-rehydrate/pkg/codec"
	"github.com/goliatone/go-rehydrate/pkg/storage"
	"github.com/goliatone/go-rehydrate/pkg/storage/boltstore"
	"github.com/goliatone/go-rehydrate/pkg/storage/leveldbstore"
	"github.com/goliatone/go-rehydrate/pkg/storage/sqlitestore"
)

type flags struct {
	backend string
	path    string
	bucket  string
	codec   string
}

// backend is a storage.Backend that can list keys and must be closed.
type backend interface {
	storage.Backend
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// stamped is implemented by backends that track write times.
type stamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "persistctl",
		Short:         "Inspect persisted slice envelopes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&f.backend, "backend", "bolt", "storage backend: bolt, leveldb or sqlite")
	root.PersistentFlags().StringVar(&f.path, "path", "", "path to the database file or directory")
	root.PersistentFlags().StringVar(&f.bucket, "bucket", "", "bolt bucket name")
	root.PersistentFlags().StringVar(&f.codec, "codec", "json", "codec: json, yaml or records")
	_ = root.MarkPersistentFlagRequired("path")

	root.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the decoded envelope stored under key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPersistor(f, func(b backend, p *storage.Persistor) error {
					envelope, ok, err := p.Read(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("key %q not found", args[0])
					}
					view := envelopeView(envelope)
					if s, ok := b.(stamped); ok {
						at, found, err := s.UpdatedAt(cmd.Context(), args[0])
						if err != nil {
							return err
						}
						if found {
							view["updated_at"] = at.Format(time.RFC3339Nano)
						}
					}
					return writeJSON(cmd.OutOrStdout(), view)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <key>",
			Short: "Remove the envelope stored under key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPersistor(f, func(_ backend, p *storage.Persistor) error {
					if err := p.Remove(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "ls [prefix]",
			Short: "List stored keys",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				prefix := ""
				if len(args) == 1 {
					prefix = args[0]
				}
				return withPersistor(f, func(b backend, _ *storage.Persistor) error {
					keys, err := b.Keys(cmd.Context(), prefix)
					if err != nil {
						return err
					}
					for _, key := range keys {
						fmt.Fprintln(cmd.OutOrStdout(), key)
					}
					return nil
				})
			},
		},
	)
	return root
}

func withPersistor(f *flags, fn func(backend, *storage.Persistor) error) error {
	c, err := codec.ByName(f.codec)
	if err != nil {
		return err
	}
	b, err := openBackend(f)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b, storage.NewPersistor(b, storage.WithCodec(c)))
}

func openBackend(f *flags) (backend, error) {
	var (
		b   backend
		err error
	)
	switch strings.ToLower(strings.TrimSpace(f.backend)) {
	case "bolt", "bbolt":
		b, err = boltstore.Open(f.path, f.bucket)
	case "leveldb":
		b, err = leveldbstore.Open(f.path)
	case "sqlite":
		b, err = sqlitestore.Open(f.path)
	default:
		return nil, fmt.Errorf("unknown backend %q", f.backend)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func envelopeView(envelope storage.Envelope) map[string]any {
	view := map[string]any{"state": envelope.State, "version": nil}
	if envelope.Versioned {
		view["version"] = envelope.Version
	}
	return view
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
