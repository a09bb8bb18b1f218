package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

func idArg(args []string) (string, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return "", fmt.Errorf("invalid id %q: must be a positive integer", args[0])
	}
	return strconv.Itoa(id), nil
}

func newListCmd(client func() *apiClient) *cobra.Command {
	var (
		typ, name, sortBy, sortOrder string
		page, limit                  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Pokemon with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			req := c.http.R()
			if typ != "" {
				req.SetQueryParam("type", typ)
			}
			if name != "" {
				req.SetQueryParam("name", name)
			}
			if sortBy != "" {
				req.SetQueryParam("sortBy", sortBy)
			}
			if sortOrder != "" {
				req.SetQueryParam("sortOrder", sortOrder)
			}
			if page > 0 {
				req.SetQueryParam("page", strconv.Itoa(page))
			}
			if limit > 0 {
				req.SetQueryParam("limit", strconv.Itoa(limit))
			}
			return c.do(req, http.MethodGet, "/pokemons", http.StatusOK)
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Filter by exact type")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Filter by name substring")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page number (1-based)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (1-100)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "Sort column: name or created_at")
	cmd.Flags().StringVar(&sortOrder, "sort-order", "", "Sort order: asc or desc")
	return cmd
}

func newGetCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a Pokemon by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			c := client()
			return c.do(c.http.R(), http.MethodGet, "/pokemons/"+id, http.StatusOK)
		},
	}
}

func newCreateCmd(client func() *apiClient) *cobra.Command {
	var name, typ string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a Pokemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			req := c.http.R().SetBody(map[string]string{"name": name, "type": typ})
			return c.do(req, http.MethodPost, "/pokemons", http.StatusCreated)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Pokemon name (required)")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Pokemon type (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newUpdateCmd(client func() *apiClient) *cobra.Command {
	var name, typ string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the name and/or type of a Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			body := map[string]string{}
			if cmd.Flags().Changed("name") {
				body["name"] = name
			}
			if cmd.Flags().Changed("type") {
				body["type"] = typ
			}
			if len(body) == 0 {
				return fmt.Errorf("--name or --type required")
			}
			c := client()
			return c.do(c.http.R().SetBody(body), http.MethodPatch, "/pokemons/"+id, http.StatusOK)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "New type")
	return cmd
}

func newDeleteCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			c := client()
			if err := c.do(c.http.R(), http.MethodDelete, "/pokemons/"+id, http.StatusNoContent); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "deleted %s\n", id)
			return err
		},
	}
}

func newImportCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "import ID",
		Short: "Import a Pokemon from PokeAPI by its catalog id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			c := client()
			return c.do(c.http.R(), http.MethodPost, "/pokemons/import/"+id, http.StatusOK)
		},
	}
}
