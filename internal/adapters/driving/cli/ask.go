package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

var (
	askDocument string
	askK        int
	askJSON     bool
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the documents in the collection and cites the
pages it used.

Without a question, ask starts an interactive chat when run in a terminal
(type "exit" or press Ctrl-D to leave) and otherwise reads one question
from standard input. Follow-up questions in a chat see earlier turns.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "restrict retrieval to one document ID")
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.TrimSpace(strings.Join(args, " "))

	interactive := question == "" && stdinIsTerminal()
	if question == "" && !interactive {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading question: %w", err)
		}
		question = strings.TrimSpace(string(data))
		if question == "" {
			return errors.New("no question given")
		}
	}

	p, session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer p.Sessions.Destroy(context.WithoutCancel(ctx), session.ID, false) //nolint:errcheck

	if interactive {
		return chat(cmd, p.Study, session)
	}
	return askOnce(cmd, p.Study, session, question)
}

func askOnce(cmd *cobra.Command, study driving.StudyService, session *domain.Session, question string) error {
	answer, err := study.Ask(cmd.Context(), session, driving.AskRequest{
		Question:   question,
		DocumentID: askDocument,
		K:          askK,
	})
	if err != nil {
		return err
	}
	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

// chat reads questions line by line until exit or end of input. A failed
// turn is reported and the chat continues.
func chat(cmd *cobra.Command, study driving.StudyService, session *domain.Session) error {
	cmd.Println(styles.Title.Render("StudyMate") + styles.Muted.Render(" · "+session.Collection+" · type exit to quit"))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print(styles.SourceTag.Render("? "))
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := askOnce(cmd, study, session, question); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			cmd.PrintErrln(styles.Error.Render(userMessage(err)))
		}
		cmd.Println()
	}
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(wrap(answer.Text))

	if !answer.Grounded {
		cmd.Println()
		cmd.Println(styles.Disclaimer.Render("(" + answer.Disclaimer + ")"))
		return
	}

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(styles.Muted.Render("Sources:"))
		for _, s := range answer.Sources {
			cmd.Printf("  %s %s\n", styles.SourceTag.Render(fmt.Sprintf("[%d]", s.Index)), s.Label)
		}
	}
}

type answerOutput struct {
	Answer     string         `json:"answer"`
	Grounded   bool           `json:"grounded"`
	Disclaimer string         `json:"disclaimer,omitempty"`
	Sources    []sourceOutput `json:"sources"`
}

type sourceOutput struct {
	Index      int    `json:"index"`
	Label      string `json:"label"`
	DocumentID string `json:"document_id"`
	PageStart  int    `json:"page_start"`
	PageEnd    int    `json:"page_end"`
}

func toAnswerOutput(answer *domain.Answer) answerOutput {
	out := answerOutput{
		Answer:     answer.Text,
		Grounded:   answer.Grounded,
		Disclaimer: answer.Disclaimer,
		Sources:    make([]sourceOutput, len(answer.Sources)),
	}
	for i, s := range answer.Sources {
		out.Sources[i] = sourceOutput{
			Index:      s.Index,
			Label:      s.Label,
			DocumentID: s.DocumentID,
			PageStart:  s.PageStart,
			PageEnd:    s.PageEnd,
		}
	}
	return out
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(toAnswerOutput(answer), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
