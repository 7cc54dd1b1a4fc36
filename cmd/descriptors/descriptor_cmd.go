package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/holons/pkg/descriptors"
	"github.com/mesh-intelligence/holons/pkg/types"
)

// kind binds the Zome operations of one descriptor kind to the create,
// get, update, delete and list subcommands.
type kind[T any] struct {
	use    string
	noun   string
	header func(T) types.TypeHeader
	create func(*descriptors.Zome, context.Context, T) (descriptors.Revision[T], error)
	get    func(*descriptors.Zome, context.Context, types.ActionHash) (descriptors.Revision[T], error)
	update func(z *descriptors.Zome, ctx context.Context, original, previous types.ActionHash, d T) (descriptors.Revision[T], error)
	remove func(*descriptors.Zome, context.Context, types.ActionHash) (types.ActionHash, error)
	list   func(*descriptors.Zome, context.Context) ([]descriptors.Revision[T], error)
}

func newHolonCmd(a *app) *cobra.Command {
	return newKindCmd(a, kind[types.HolonDescriptor]{
		use:    "holon",
		noun:   "holon descriptor",
		header: func(d types.HolonDescriptor) types.TypeHeader { return d.Header },
		create: (*descriptors.Zome).CreateHolonDescriptor,
		get:    (*descriptors.Zome).GetHolonDescriptor,
		update: func(z *descriptors.Zome, ctx context.Context, original, previous types.ActionHash, d types.HolonDescriptor) (descriptors.HolonDescriptorRecord, error) {
			return z.UpdateHolonDescriptor(ctx, descriptors.UpdateHolonDescriptorInput{
				OriginalHash: original, PreviousHash: previous, Updated: d,
			})
		},
		remove: (*descriptors.Zome).DeleteHolonDescriptor,
		list:   (*descriptors.Zome).GetAllHolonTypes,
	})
}

func newPropertyCmd(a *app) *cobra.Command {
	return newKindCmd(a, kind[types.PropertyDescriptor]{
		use:    "property",
		noun:   "property descriptor",
		header: func(d types.PropertyDescriptor) types.TypeHeader { return d.Header },
		create: (*descriptors.Zome).CreatePropertyDescriptor,
		get:    (*descriptors.Zome).GetPropertyDescriptor,
		update: func(z *descriptors.Zome, ctx context.Context, original, previous types.ActionHash, d types.PropertyDescriptor) (descriptors.PropertyDescriptorRecord, error) {
			return z.UpdatePropertyDescriptor(ctx, descriptors.UpdatePropertyDescriptorInput{
				OriginalHash: original, PreviousHash: previous, Updated: d,
			})
		},
		remove: (*descriptors.Zome).DeletePropertyDescriptor,
		list:   (*descriptors.Zome).GetAllPropertyDescriptors,
	})
}

func newKindCmd[T any](a *app, k kind[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.use,
		Short: "Manage " + k.noun + "s",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [file]",
		Short: "Store a new " + k.noun,
		Long: "Create reads a " + k.noun + " as JSON or YAML from file, or from stdin\n" +
			"when file is omitted or \"-\", and stores it as the original of a new\n" +
			"revision chain.",
		Args: args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var d T
			if err := a.readDocument(optionalArg(argv, 0), &d); err != nil {
				return err
			}
			return a.withZome(func(z *descriptors.Zome) error {
				rec, err := k.create(z, cmd.Context(), d)
				if err != nil {
					return err
				}
				return printRevision(a, cmd, k, "Created", rec)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <hash>",
		Short: "Print the latest revision of a " + k.noun,
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			hash, err := parseHash(argv[0])
			if err != nil {
				return err
			}
			return a.withZome(func(z *descriptors.Zome) error {
				rec, err := k.get(z, cmd.Context(), hash)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	})

	var previous string
	updateCmd := &cobra.Command{
		Use:   "update <original-hash> [file]",
		Short: "Store a new revision of a " + k.noun,
		Long: "Update reads the revised " + k.noun + " like create does and appends it\n" +
			"to the chain started by original-hash. --previous names the revision\n" +
			"being replaced; it defaults to the chain's current latest revision.",
		Args: args(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			original, err := parseHash(argv[0])
			if err != nil {
				return err
			}
			var d T
			if err := a.readDocument(optionalArg(argv, 1), &d); err != nil {
				return err
			}
			return a.withZome(func(z *descriptors.Zome) error {
				prev, err := previousHash(cmd.Context(), a, z, k, original, previous)
				if err != nil {
					return err
				}
				rec, err := k.update(z, cmd.Context(), original, prev, d)
				if err != nil {
					return err
				}
				return printRevision(a, cmd, k, "Updated", rec)
			})
		},
	}
	updateCmd.Flags().StringVar(&previous, "previous", "", "action hash of the revision being replaced")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <hash>",
		Short: "Delete a " + k.noun,
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			hash, err := parseHash(argv[0])
			if err != nil {
				return err
			}
			return a.withZome(func(z *descriptors.Zome) error {
				deleted, err := k.remove(z, cmd.Context(), hash)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]types.ActionHash{"delete_hash": deleted})
				}
				success.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", k.noun, hash)
				fmt.Fprintf(cmd.OutOrStdout(), "  delete hash: %s\n", deleted)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the latest revision of every live " + k.noun,
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return a.withZome(func(z *descriptors.Zome) error {
				recs, err := k.list(z, cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonMode {
					if recs == nil {
						recs = []descriptors.Revision[T]{}
					}
					return printJSON(cmd.OutOrStdout(), recs)
				}
				if len(recs) == 0 {
					faint.Fprintf(cmd.OutOrStdout(), "No %ss\n", k.noun)
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE NAME\tBASE TYPE\tVERSION\tACTION HASH")
				for _, rec := range recs {
					h := k.header(rec.Descriptor)
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.TypeName, h.BaseType, h.Version, rec.ActionHash)
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}

// previousHash returns the --previous flag value, or the hash of the
// chain's latest revision when the flag is empty.
func previousHash[T any](ctx context.Context, a *app, z *descriptors.Zome, k kind[T], original types.ActionHash, flag string) (types.ActionHash, error) {
	if flag != "" {
		return parseHash(flag)
	}
	latest, err := k.get(z, ctx, original)
	if err != nil {
		return types.ActionHash{}, err
	}
	a.logger.Debugw("using latest revision as previous", "original", original.String(), "previous", latest.ActionHash.String())
	return latest.ActionHash, nil
}

func printRevision[T any](a *app, cmd *cobra.Command, k kind[T], verb string, rec descriptors.Revision[T]) error {
	if a.jsonMode {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	h := k.header(rec.Descriptor)
	w := cmd.OutOrStdout()
	success.Fprintf(w, "%s %s %s\n", verb, k.noun, h.TypeName)
	fmt.Fprintf(w, "  action hash:   %s\n", rec.ActionHash)
	fmt.Fprintf(w, "  original hash: %s\n", rec.OriginalHash)
	return nil
}

func optionalArg(argv []string, i int) string {
	if i < len(argv) {
		return argv[i]
	}
	return ""
}
