package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/investor-interview/backend/internal/config"
	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	"github.com/zhouzirui/investor-interview/backend/internal/service/interpreter"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	portfolioService "github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
	"github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "interviewctl",
		Short:        "Run and inspect the investor interview from the terminal",
		SilenceUsage: true,
	}

	root.AddCommand(newQuestionsCommand())
	root.AddCommand(newSelectCommand())
	root.AddCommand(newRunCommand())
	return root
}

func newQuestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the question catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			part := ""
			for _, q := range interview.Questions() {
				if q.Part != part {
					part = q.Part
					fmt.Fprintf(out, "\n%s\n", part)
				}
				fmt.Fprintf(out, "  %-4s %-24s %s\n", q.ID, q.Label, q.Text)
			}
			return nil
		},
	}
}

func newSelectCommand() *cobra.Command {
	var answersPath string

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select a portfolio for a complete answer set (JSON file or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if answersPath != "" && answersPath != "-" {
				f, err := os.Open(answersPath)
				if err != nil {
					return fmt.Errorf("open answers: %w", err)
				}
				defer f.Close()
				in = f
			}

			var answers interview.AnswerSet
			if err := json.NewDecoder(in).Decode(&answers); err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}
			complete, err := answers.Complete()
			if err != nil {
				return err
			}

			selector, err := newSelector()
			if err != nil {
				return err
			}
			selection, err := selector.Select(complete)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(map[string]any{
				"selectedPortfolioId": selection.PortfolioID,
				"title":               selection.Portfolio.Title,
				"rationale":           selection.Rationale,
			})
		},
	}
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "-", "answers JSON file, - for stdin")
	return cmd
}

func newRunCommand() *cobra.Command {
	var (
		slot   string
		resume bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Conduct an interview on the terminal using the configured interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("配置加载失败: %w", err)
			}

			backend, err := interpreter.NewBackend(ctx, cfg.AI, cfg.Interpreter)
			if err != nil {
				return err
			}
			selector, err := newSelector()
			if err != nil {
				return err
			}
			engine := interviewService.NewEngine(
				interpreter.NewAdapter(backend, interpreter.WithRepair(cfg.Interpreter.RepairJSON)),
				selector,
			)

			var store session.Store
			if slot != "" {
				store, err = session.New(ctx, cfg.Store)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			console := &console{
				engine:  engine,
				store:   store,
				slot:    slot,
				timeout: cfg.Interpreter.Timeout,
				in:      cmd.InOrStdin(),
				out:     cmd.OutOrStdout(),
			}
			return console.run(ctx, resume)
		},
	}
	cmd.Flags().StringVar(&slot, "slot", "", "persist progress in the configured session store under this slot")
	cmd.Flags().BoolVar(&resume, "resume", false, "continue the interview saved in --slot")
	return cmd
}

func newSelector() (*portfolioService.Selector, error) {
	portfolios, err := portfolioModel.Seed()
	if err != nil {
		return nil, err
	}
	return portfolioService.NewSelector(portfolioModel.NewMemoryCatalog(portfolios))
}

func printResponse(out io.Writer, response interview.Response) {
	switch r := response.(type) {
	case interview.NextQuestion:
		fmt.Fprintf(out, "[%s] %s\n", r.QuestionID, r.SpeakText)
	case interview.Clarification:
		fmt.Fprintf(out, "[%s] %s\n", r.QuestionID, r.SpeakText)
	case interview.FinalResult:
		fmt.Fprintf(out, "\n%s\n", r.SpeakText)
		fmt.Fprintf(out, "selected: %s (%s)\n", r.SelectedPortfolioID, r.Portfolio.Title)
	}
}

func readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
