// vigil-log appends one assistant interaction to the journal. It is meant to
// be called from conversation hooks, so it always exits zero once the journal
// opens; a failed write must never fail the conversation.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"vigil0/app/core/journal"
	"vigil0/app/pkg/logger"
	"vigil0/app/pkg/types"
)

func main() {
	dataDir := flag.String("data-dir", "output/db", "journal data directory")
	prompt := flag.String("prompt", "", "user prompt text")
	response := flag.String("response", "", "assistant response text")
	durationMS := flag.Int64("duration-ms", 0, "interaction duration in milliseconds")
	tools := flag.String("tools", "", "comma separated tool names used during the interaction")
	state := flag.String("state", string(types.StateAway), "context state at the time of the interaction")
	flag.Parse()

	if strings.TrimSpace(*prompt) == "" {
		fmt.Fprintln(os.Stderr, "vigil-log failed: -prompt is required")
		os.Exit(2)
	}
	if err := logger.Init("output/logs"); err != nil {
		fmt.Fprintf(os.Stderr, "vigil-log failed: %v\n", err)
		os.Exit(2)
	}

	store, err := journal.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vigil-log failed: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	var toolList []string
	for _, tool := range strings.Split(*tools, ",") {
		if trimmed := strings.TrimSpace(tool); trimmed != "" {
			toolList = append(toolList, trimmed)
		}
	}
	parsedState, _ := types.Parse(*state)

	journal.NewRecorder(store).Log(*prompt, *response, *durationMS, toolList, parsedState)
}
