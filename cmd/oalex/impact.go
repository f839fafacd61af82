package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/oalex/internal/impact"
)

var (
	flagIFYear  int
	flagIFLimit int
)

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Journal Impact-Factor analytics",
}

var impactComputeCmd = &cobra.Command{
	Use:   "compute <issn>",
	Short: "Compute the Impact Factor of one journal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenDatabase()
		defer st.Close()

		eng := &impact.Engine{Store: st, Window: flagWindow, Log: newLogger()}
		jif, err := eng.Compute(args[0], flagIFYear)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if !flagHuman {
			outputJSON(jif)
			return
		}
		name := jif.JournalName
		if name == "" {
			name = jif.ISSN
		}
		if !jif.Defined {
			fmt.Printf("%s (%d): undefined, no citable items in window\n", name, jif.Year)
			return
		}
		fmt.Printf("%s (%d): IF %.1f (%d citations / %d citable items)\n",
			name, jif.Year, jif.Value, jif.Citations, jif.Articles)
	},
}

var impactValidateCmd = &cobra.Command{
	Use:   "validate <reference.csv>",
	Short: "Compare computed Impact Factors against a reference CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenDatabase()
		defer st.Close()

		eng := &impact.Engine{Store: st, Window: flagWindow, Log: newLogger()}
		res, err := eng.Validate(args[0], flagIFYear)
		if err != nil {
			exitWithError(exitData, "%v", err)
		}

		if !flagHuman {
			outputJSON(res)
			return
		}
		for _, row := range res.Rows {
			computed := "undefined"
			if row.Computed != nil {
				computed = strconv.FormatFloat(*row.Computed, 'f', 1, 64)
			}
			mark := " "
			if row.GoodMatch {
				mark = "*"
			}
			fmt.Printf("%s %-9s %-40.40s ref %.1f computed %s\n",
				mark, row.ISSN, row.Journal, row.Reference, computed)
		}
		fmt.Printf("%d/%d good matches\n", res.GoodMatches, res.Compared)
	},
}

var impactPrecomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "Compute and store Impact Factors for every journal in the corpus",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenDatabase()
		defer st.Close()

		eng := &impact.Engine{Store: st, Window: flagWindow, Log: newLogger()}
		res, err := eng.PrecomputeAll(cmd.Context(), flagIFYear, flagIFLimit)
		if err != nil {
			exitWithError(exitError, "%v", err)
		}

		if flagHuman {
			fmt.Printf("%d journals: %d defined, %d undefined\n",
				res.Journals, res.Defined, res.Undefined)
			return
		}
		outputJSON(res)
	},
}

func init() {
	impactCmd.PersistentFlags().IntVar(&flagIFYear, "year", 2023, "target year")
	impactPrecomputeCmd.Flags().IntVar(&flagIFLimit, "limit", 0,
		"only the first N journals (0 = all)")
	impactCmd.AddCommand(impactComputeCmd, impactValidateCmd, impactPrecomputeCmd)
}
