package tools

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// InteractiveApprover prompts on the terminal with y/n/d/q. 'd' prints the
// request's Preview again and asks again; for a file of 50 or more lines that
// preview is the +N/-N statistics, not a full diff. 'q' ends the session
// gracefully.
type InteractiveApprover struct{}

func NewInteractiveApprover() *InteractiveApprover {
	return &InteractiveApprover{}
}

func (a *InteractiveApprover) Approve(req ApprovalRequest) (Decision, error) {
	if req.Preview != "" {
		fmt.Println(req.Preview)
	}

	for {
		options := []huh.Option[string]{
			huh.NewOption("yes — run it", "y"),
			huh.NewOption("no — skip this call", "n"),
		}
		if req.Preview != "" {
			options = append(options, huh.NewOption("diff — show full diff again", "d"))
		}
		options = append(options, huh.NewOption("quit — end the session", "q"))

		var choice string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Allow %s?", req.Summary)).
				Options(options...).
				Value(&choice),
		))
		if err := form.Run(); err != nil {
			// Aborted prompt (Ctrl-C) counts as a denial, not a crash.
			return DecisionDeny, nil
		}

		switch choice {
		case "y":
			return DecisionApprove, nil
		case "n":
			return DecisionDeny, nil
		case "d":
			fmt.Println(req.Preview)
		case "q":
			return DecisionQuit, nil
		}
	}
}
