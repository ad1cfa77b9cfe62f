package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tweetwatch",
		Short: "Track Twitter accounts, rank tweets, and enrich them with AI",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(accountsCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(tweetsCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(trendingCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage tracked accounts",
	}

	var displayName, addedBy string
	add := &cobra.Command{
		Use:   "add <handle>",
		Short: "Track a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountAdd(args[0], displayName, addedBy)
		},
	}
	add.Flags().StringVar(&displayName, "display-name", "", "display name (default: the handle)")
	add.Flags().StringVar(&addedBy, "added-by", "", "who added this account")

	remove := &cobra.Command{
		Use:   "remove <handle>",
		Short: "Stop tracking an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountRemove(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList()
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func fetchCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Refetch timelines for tracked accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(account)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "refetch a single account by handle")
	return cmd
}

func tweetsCmd() *cobra.Command {
	var (
		jsonOutput bool
		query      string
		sortMode   string
		order      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "tweets",
		Short: "List stored tweets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTweets(jsonOutput, query, sortMode, order, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&query, "q", "", "filter by content or account")
	cmd.Flags().StringVar(&sortMode, "sort", "newest", "sort mode: newest, popular, engagement")
	cmd.Flags().StringVar(&order, "order", "desc", "sort order: asc, desc")
	cmd.Flags().IntVar(&limit, "limit", 50, "max tweets to show")
	return cmd
}

func statsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show engagement stats over stored tweets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(query)
		},
	}

	cmd.Flags().StringVar(&query, "q", "", "filter by content or account")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored tweets to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(format, out, query)
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv, json")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: tweets_<date>.<format>; '-' for stdout)")
	cmd.Flags().StringVar(&query, "q", "", "filter by content or account")
	return cmd
}

func trendingCmd() *cobra.Command {
	var (
		category string
		country  string
	)

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Search trending tweets by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrending(category, country)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "technology, politics, sports, entertainment, business")
	cmd.Flags().StringVar(&country, "country", "", "turkey or global (default: from config)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with auto-fetch loop and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
