package main

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/spf13/cobra"

	"github.com/lets-qa/EML-Content-Generator/stats"
)

var inspectTop int

var inspectCmd = &cobra.Command{
	Use:   "inspect [eml directory or mbox file]",
	Short: "Analyse a generated corpus and show header statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		headersToTrack := []string{"From", "To", "Subject"}
		counter := make(map[string]map[string]int)
		for _, h := range headersToTrack {
			counter[h] = make(map[string]int)
		}

		messageCount := 0
		collect := func(r io.Reader) error {
			msg, err := mail.ReadMessage(r)
			if err != nil {
				return err
			}
			messageCount++
			for _, h := range headersToTrack {
				if value := msg.Header.Get(h); value != "" {
					counter[h][value]++
				}
			}
			return nil
		}

		if info.IsDir() {
			err = inspectDir(path, collect)
		} else {
			err = inspectMbox(path, collect)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Analyzed %d messages in %s\n\n", messageCount, path)
		for _, h := range headersToTrack {
			fmt.Printf("Top %d %s:\n", inspectTop, h)
			stats.PrettyPrintTop(counter[h], inspectTop)
			fmt.Println()
		}

		return nil
	},
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectTop, "top", "t", 10, "Number of top items to display in statistics")
	rootCmd.AddCommand(inspectCmd)
}

func inspectDir(dir string, collect func(io.Reader) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		err = collect(file)
		file.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

func inspectMbox(path string, collect func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	for {
		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read mbox: %w", err)
		}
		if err := collect(msg); err != nil {
			return fmt.Errorf("parse mbox message: %w", err)
		}
	}
}
