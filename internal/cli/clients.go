package cli

import (
	"fmt"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/spf13/cobra"
)

func newSearchCommand(rt *runtime) *cobra.Command {
	var (
		types, statuses, countries []string
		industries, tags           []string
		params                     domain.SearchParams
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search live clients",
		Long: `Search live clients by free text and filters. Repeat a filter flag or
separate values with commas; values of one filter are alternatives, tags
must all be present.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				params.Query = args[0]
			}
			for _, t := range types {
				params.ClientTypes = append(params.ClientTypes, domain.ClientType(t))
			}
			for _, s := range statuses {
				params.Statuses = append(params.Statuses, domain.ClientStatus(s))
			}
			params.Countries = countries
			params.Industries = industries
			params.Tags = tags
			params.SortOrder = domain.SortOrder(strings.ToLower(string(params.SortOrder)))

			return rt.withContainer(func(c *app.Container) error {
				res, err := c.SearchSvc.Search(cmd.Context(), params)
				if err != nil {
					return err
				}
				return rt.print(cmd.OutOrStdout(), res)
			})
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&types, "type", nil, "client types (individual, business)")
	f.StringSliceVar(&statuses, "status", nil, "statuses")
	f.StringSliceVar(&countries, "country", nil, "ISO country codes")
	f.StringSliceVar(&industries, "industry", nil, "industries")
	f.StringSliceVar(&tags, "tag", nil, "required tags")
	f.StringVar(&params.SortBy, "sort-by", "", "sort key, e.g. created_at or display_name")
	f.StringVar((*string)(&params.SortOrder), "order", "", "asc or desc")
	f.IntVar(&params.Page, "page", 1, "page number")
	f.IntVar(&params.PageSize, "page-size", 0, "page size (server default when 0)")
	f.BoolVar(&params.IncludeFacets, "facets", false, "include facet counts")
	return cmd
}

func newShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client with its folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withContainer(func(c *app.Container) error {
				detail, err := c.ClientSvc.GetDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("client %s not found", args[0])
				}
				return rt.print(cmd.OutOrStdout(), detail)
			})
		},
	}
}
