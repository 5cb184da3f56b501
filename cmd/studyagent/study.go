package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fkobayashi/studyagent/internal/study"
)

func newStudyCommand() *cobra.Command {
	var userID int64
	var topicID int64
	var questions int

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Run an interactive study session",
		Long: `Run an interactive study session on a topic.

If the user already has a session in flight, it is resumed from its current
question. Type /cancel at any prompt to abandon the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			session, err := rt.manager.ActiveSession(ctx, userID)
			if err != nil {
				return fmt.Errorf("look up active session: %w", err)
			}
			if session != nil {
				fmt.Printf("Resuming session %d (question %d of %d).\n\n",
					session.ID, session.QuestionIndex+1, session.QuestionCount)
			} else {
				if topicID == 0 {
					return fmt.Errorf("--topic is required to start a new session")
				}
				session, err = rt.manager.StartSession(ctx, userID, topicID, study.TriggerManual, questions)
				if errors.Is(err, study.ErrTopicUnavailable) {
					return fmt.Errorf("topic %d has no usable content; sync the repository first", topicID)
				}
				if err != nil {
					return fmt.Errorf("start session: %w", err)
				}
			}

			topic, err := rt.topics.GetByID(ctx, session.TopicID)
			if err != nil {
				return fmt.Errorf("load topic: %w", err)
			}
			bold := color.New(color.Bold)
			_, _ = bold.Printf("Studying: %s\n\n", topic.Title)

			stdin := bufio.NewReader(os.Stdin)
			for {
				assessment, err := rt.manager.PresentNext(ctx, session.ID)
				if errors.Is(err, study.ErrSessionFinished) {
					fmt.Println("All questions were already answered; the session is now complete.")
					return nil
				}
				if err != nil {
					return fmt.Errorf("present question: %w", err)
				}

				_, _ = bold.Printf("Question %d/%d: ", assessment.Position+1, session.QuestionCount)
				fmt.Println(assessment.Question)
				fmt.Print("> ")

				line, err := stdin.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read answer: %w", err)
				}
				answer := strings.TrimSpace(line)

				if answer == "/cancel" {
					if err := rt.manager.CancelSession(ctx, session.ID, study.CancelReasonUserRequested); err != nil {
						return fmt.Errorf("cancel session: %w", err)
					}
					fmt.Println("Session cancelled. Your progress so far was recorded.")
					return nil
				}

				result, err := rt.manager.SubmitAnswer(ctx, session.ID, answer)
				var validationErr *study.ValidationError
				if errors.As(err, &validationErr) {
					color.Yellow("Invalid answer: %s", validationErr.Reason)
					continue
				}
				if err != nil {
					return fmt.Errorf("submit answer: %w", err)
				}

				displayAssessment(result.Assessment)

				if result.Completed {
					fmt.Println()
					_, _ = bold.Printf("Session complete! Score: %.0f%%\n", result.SessionScore*100)
					return nil
				}
			}
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().Int64Var(&topicID, "topic", 0, "Topic ID to study (ignored when resuming)")
	cmd.Flags().IntVar(&questions, "questions", 0, "Number of questions (0 uses the default)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func displayAssessment(assessment study.Assessment) {
	fmt.Println()
	if assessment.IsCorrect != nil && *assessment.IsCorrect {
		fmt.Print("✅ ")
		color.Green("Correct! (%.0f%%)", scoreOf(assessment)*100)
	} else {
		fmt.Print("❌ ")
		color.Red("Incorrect. (%.0f%%)", scoreOf(assessment)*100)
		fmt.Printf("   Reference answer: %s\n", assessment.ReferenceAnswer)
	}
	if assessment.Feedback != nil && *assessment.Feedback != "" {
		fmt.Printf("   %s\n", *assessment.Feedback)
	}
	fmt.Println()
}

func scoreOf(assessment study.Assessment) float64 {
	if assessment.Score == nil {
		return 0
	}
	return *assessment.Score
}
