package entiq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracelab/entiq/pkg/config"
	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/server/dto"
	"github.com/tracelab/entiq/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a global text search against the configured store",
	Long: `Run a global text search against the configured entity store and print
the ranked matches. The query is tokenized; an entity matches when any token
appears as a whole word in one of its fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchKinds   []string
	searchLimit   int
	searchFixture string
	searchJSON    bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "Entity kinds to search (default: all)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results to print")
	searchCmd.Flags().StringVar(&searchFixture, "fixture", "", "YAML fixture file to load")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if searchFixture != "" {
		cfg.Store.Fixture = searchFixture
	}

	engine, closeEngine, err := initializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer closeEngine()

	scope := make([]types.Kind, 0, len(searchKinds))
	for _, k := range searchKinds {
		scope = append(scope, types.Kind(strings.ToUpper(k)))
	}
	kind := types.KindSample
	if len(scope) > 0 {
		kind = scope[0]
	}

	crit := criteria.For(kind).WithText().ThatContains(args[0])

	graph := fetch.NewGraph(kind).WithProperties().WithMatch().Count(searchLimit)
	graph.SortBy().ByScore().Desc()

	ctx := context.WithValue(context.Background(), types.ContextKeyRequestSource, "cli")
	result, err := engine.SearchGlobal(ctx, types.Principal{}, crit, scope, graph)
	if err != nil {
		return err
	}

	if searchJSON {
		roots, arena := dto.RenderObjects(result.Objects)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.SearchResponse{TotalCount: result.TotalCount, Roots: roots, Objects: arena})
	}

	fmt.Printf("%d matches (showing %d)\n", result.TotalCount, len(result.Objects))
	for _, obj := range result.Objects {
		score, details, _ := obj.Match()
		fmt.Printf("%8.1f  %s\n", score, obj.Ref())
		for _, d := range details {
			fmt.Printf("          %s: %q (+%.1f)\n", d.Field, d.Snippet, d.Weight)
		}
	}
	return nil
}
