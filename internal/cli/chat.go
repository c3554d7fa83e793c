package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/supportdesk/internal/domain"
)

func newChatCmd() *cobra.Command {
	var (
		customerID   string
		policyNumber string
		claimID      string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive support conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Println("supportdesk interactive chat — type 'exit' to quit")

			scanner := bufio.NewScanner(os.Stdin)
			sessionID := ""
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}

				result, err := app.engine.RunTurn(ctx, domain.TurnInput{
					SessionID:    sessionID,
					Message:      line,
					CustomerID:   customerID,
					PolicyNumber: policyNumber,
					ClaimID:      claimID,
				})
				if err != nil {
					if ctx.Err() != nil {
						break
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					continue
				}
				sessionID = result.SessionID

				fmt.Println(result.Message)
				if result.Escalated {
					fmt.Println("[conversation escalated to a human specialist]")
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&customerID, "customer", "", "customer ID for this conversation")
	cmd.Flags().StringVar(&policyNumber, "policy", "", "policy number for this conversation")
	cmd.Flags().StringVar(&claimID, "claim", "", "claim ID for this conversation")

	return cmd
}
