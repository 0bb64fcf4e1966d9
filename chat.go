package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/config"
)

var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	responder, err := loadResponder(cfg)
	if err != nil {
		return err
	}

	s := assistant.NewSession(uuid.NewString(), responder, assistant.WithReplyDelay(cfg.Assistant.ReplyDelay))
	s.Open()
	defer s.Teardown()

	return chatLoop(cmd.InOrStdin(), cmd.OutOrStdout(), s)
}

// chatLoop reads lines from in until EOF or /quit and prints the
// conversation to out. Each accepted question blocks until its reply lands.
func chatLoop(in io.Reader, out io.Writer, s *assistant.Session) error {
	events, cancel := s.Watch(16)
	defer cancel()

	for _, m := range s.Messages() {
		printMessage(out, m)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/open":
			s.Open()
		case "/close":
			s.Close()
		case "/toggle":
			s.Toggle()
		default:
			if !s.IsOpen() {
				fmt.Fprintln(out, statusStyle.Render("(panel is closed, /open to reopen)"))
				continue
			}
			if !s.Submit(line) {
				fmt.Fprintln(out, statusStyle.Render("(still thinking)"))
				continue
			}
			if !awaitReply(out, events) {
				return nil
			}
			continue
		}
		fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("(panel open: %t)", s.IsOpen())))
	}
}

// awaitReply drains events until the assistant's reply arrives. It reports
// false if the session ended first.
func awaitReply(out io.Writer, events <-chan assistant.Event) bool {
	for ev := range events {
		switch ev.Type {
		case assistant.EventMessage:
			if ev.Message != nil && ev.Message.Role == assistant.RoleAssistant {
				printMessage(out, *ev.Message)
				return true
			}
		case assistant.EventTeardown:
			return false
		}
	}
	return false
}

func printMessage(out io.Writer, m assistant.Message) {
	if m.Role == assistant.RoleUser {
		return
	}
	fmt.Fprintf(out, "%s %s\n", assistantStyle.Render("assistant:"), m.Content)
}
