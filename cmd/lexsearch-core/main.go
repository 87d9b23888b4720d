package main

// @title           Lexsearch Core API
// @version         1.0
// @description     Legal document indexing and retrieval API. Lexsearch Core keeps statutes and rulings searchable across weighted indexes and serves relevance context for downstream assistants.

// @contact.name   Lexsearch OSS
// @contact.url    https://github.com/lexsearch/lexsearch-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := Execute(version, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// Execute builds the command tree and runs it with args
func Execute(version string, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "lexsearch-core",
		Short:         "Legal document indexing and retrieval",
		Long:          "Lexsearch Core keeps a PostgreSQL document store projected into weighted search indexes and answers relevance queries over them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate("lexsearch-core {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.String("database-url", "", "PostgreSQL connection URL")
	pf.String("redis-url", "", "Redis URL for the tick lock and job events (optional)")
	pf.String("engine", "", "Search engine: bleve or meilisearch")
	pf.String("bleve-dir", "", "Directory of the embedded bleve indexes")
	pf.String("meili-url", "", "Meilisearch base URL")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("log-format", "", "Log format: text or json")

	root.AddCommand(
		newServeCmd(version),
		newReindexCmd(),
		newImportCmd(),
		newCronCmd(),
		newTokenCmd(),
		newEventsCmd(),
	)
	return root
}
