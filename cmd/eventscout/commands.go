// commands.go contains all cobra command definitions and their flag
// configurations. Each command builder creates a command and wires it to its
// handler.
package main

import (
	"github.com/spf13/cobra"
)

func buildLoginCmd(configPath *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Authenticate and persist the session",
		Example: `  eventscout login --email test@demo.com --password 123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, *configPath, email, password)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func buildSignupCmd(configPath *string) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd, *configPath, name, email, password)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func buildLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, *configPath)
		},
	}
}

func buildWhoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, *configPath)
		},
	}
}

func buildSearchCmd(configPath *string) *cobra.Command {
	var (
		city  string
		size  int
		pages int
		page  int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search the events catalog",
		Long: `Search the events catalog by keyword and/or city.

Results are paged; --pages walks that many pages through the incremental
cache and --all keeps going until the catalog reports no further page.`,
		Example: `  # First page of matches
  eventscout search music --city Berlin

  # Three pages merged into one list
  eventscout search music --pages 3

  # Everything the catalog has
  eventscout search music --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) > 0 {
				keyword = args[0]
			}
			if page >= 0 {
				return runSearchPage(cmd, *configPath, keyword, city, page, size)
			}
			return runSearch(cmd, *configPath, keyword, city, size, pages, all)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "Filter by city")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (default from config)")
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().IntVar(&page, "page", -1, "Jump to one specific 0-based page instead of merging")
	cmd.Flags().BoolVar(&all, "all", false, "Load every page")
	return cmd
}

func buildEventCmd(configPath *string) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "event <id>",
		Short: "Show one event's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvent(cmd, *configPath, args[0], refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and refetch")
	return cmd
}

func buildFavoritesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesList(cmd, *configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <event-id>",
		Short: "Toggle an event into favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesAdd(cmd, *configPath, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <event-id>",
		Short: "Remove an event from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesRemove(cmd, *configPath, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Refetch details for every favorite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesRefresh(cmd, *configPath)
		},
	})

	return cmd
}
