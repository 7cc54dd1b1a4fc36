package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/holons/pkg/descriptors"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [bundle]",
		Short: "Store shared property types and the composites that reference them",
		Long: "Resolve reads a bundle with shared_types and referencing_types lists\n" +
			"(JSON or YAML, from file or stdin). Each shared type is stored first;\n" +
			"Shared usages that name a shared type are then rewritten to carry its\n" +
			"action hash before the referencing composites are stored. Nothing is\n" +
			"stored if a reference names an undeclared type.\n\n" +
			"Example bundle:\n\n" +
			"  shared_types:\n" +
			"    - header: {type_name: Name_String_Type, base_type: {type: String}}\n" +
			"      details: {String: {min_length: 1, max_length: 128}}\n" +
			"  referencing_types:\n" +
			"    - header: {type_name: Person_Composite_Type, base_type: {type: Composite}}\n" +
			"      details:\n" +
			"        Composite:\n" +
			"          property_map:\n" +
			"            properties:\n" +
			"              name:\n" +
			"                descriptor: {header: {type_name: Name_String_Type, base_type: {type: String}}, details: {String: {min_length: 1, max_length: 128}}}\n" +
			"                sharing: {Shared: {name: Name_String_Type}}",
		Args: args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var set descriptors.SharedTypesSet
			if err := a.readDocument(optionalArg(argv, 0), &set); err != nil {
				return err
			}
			return a.withZome(func(z *descriptors.Zome) error {
				res, err := descriptors.NewResolver(z, a.logger).Resolve(cmd.Context(), set)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), res)
				}
				w := cmd.OutOrStdout()
				success.Fprintf(w, "Resolved %d shared and %d referencing types\n", len(res.Shared), len(res.Referencing))
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ROLE\tTYPE NAME\tACTION HASH")
				for _, t := range res.Shared {
					fmt.Fprintf(tw, "shared\t%s\t%s\n", t.TypeName, t.ActionHash)
				}
				for _, t := range res.Referencing {
					fmt.Fprintf(tw, "referencing\t%s\t%s\n", t.TypeName, t.ActionHash)
				}
				return tw.Flush()
			})
		},
	}
}
