package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	toolkit "github.com/ytget/media-toolkit/internal/app"
	"github.com/ytget/media-toolkit/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	fmt.Printf("%s v%s starting...\n", toolkit.AppName, version)

	a, err := toolkit.New(toolkit.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	fyneApp := app.NewWithID(toolkit.AppID)
	fyneApp.Settings().SetTheme(ui.NewCompactTheme())

	window := fyneApp.NewWindow(fmt.Sprintf("%s v%s", toolkit.AppName, version))
	window.Resize(fyne.NewSize(ui.WindowWidth, ui.WindowHeight))

	ui.NewRootUI(window, a)

	// Blocks until the window is closed; jobs still running are awaited.
	window.ShowAndRun()
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}
