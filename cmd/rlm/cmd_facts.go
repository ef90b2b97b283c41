package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/store"
)

var (
	factsEntity            string
	factsType              string
	factsIncludeSuperseded bool
	factsLimit             int
	factsOffset            int
	factsMax               int
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Query stored facts",
}

var factsSearchCmd = &cobra.Command{
	Use:   "search query",
	Short: "Full-text search over facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := current.db.SearchFactsFTS(args[0], factFilter(), factsMax)
		if err != nil {
			return err
		}
		return printFacts(results)
	},
}

var factsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List facts, paginated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := current.db.ListFacts(factFilter(), factsLimit, factsOffset)
		if err != nil {
			return err
		}
		return printFacts(results)
	},
}

var factsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fact counts by type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := current.db.ListFacts(store.FactFilter{IncludeSuperseded: true}, 100000, 0)
		if err != nil {
			return err
		}
		byType := map[string]int{}
		active := 0
		for _, f := range all {
			byType[f.FactType]++
			if f.SupersededBy == "" {
				active++
			}
		}
		fmt.Printf("Total facts: %d (active: %d)\n", len(all), active)
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %s: %d\n", t, byType[t])
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{factsSearchCmd, factsListCmd} {
		c.Flags().StringVar(&factsEntity, "entity", "", "filter by entity")
		c.Flags().StringVar(&factsType, "type", "", "filter by fact_type")
		c.Flags().BoolVar(&factsIncludeSuperseded, "include-superseded", false, "include superseded facts")
	}
	factsSearchCmd.Flags().IntVar(&factsMax, "max", 10, "maximum results")
	factsListCmd.Flags().IntVar(&factsLimit, "limit", 20, "page size")
	factsListCmd.Flags().IntVar(&factsOffset, "offset", 0, "pagination offset")

	factsCmd.AddCommand(factsSearchCmd, factsListCmd, factsStatsCmd)
}

func factFilter() store.FactFilter {
	return store.FactFilter{Entity: factsEntity, FactType: factsType, IncludeSuperseded: factsIncludeSuperseded}
}

func printFacts(facts []store.Fact) error {
	if len(facts) == 0 {
		fmt.Println("no facts found")
		return nil
	}
	var out string
	for _, f := range facts {
		line := fmt.Sprintf("[%s] %s", f.ID, f.FactText)
		if f.Entity != "" {
			line += fmt.Sprintf(" (entity: %s, type: %s)", f.Entity, f.FactType)
		}
		out += line + "\n"
	}
	fmt.Print(boundedOutput(out))
	return nil
}
