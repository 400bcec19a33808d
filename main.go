package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"go.omifi.dev/companion/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	godotenv.Load(*envFile)

	slog.Info("starting omifi companion", "version", version, "commit", commit, "date", date)

	svc := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "OMIFI",
		Description: "Desktop companion for the OMIFI voice assistant",
		Services: []application.Service{
			application.NewService(svc),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "OMIFI",
		Width:  1100,
		Height: 760,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
		DevToolsEnabled: true,
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	svc.Init(wailsApp, mainWindow)

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetLabel("OMIFI")

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Open Dashboard").OnClick(func(ctx *application.Context) {
		svc.ShowWindow()
	})
	trayMenu.Add("Take Screenshot").
		SetAccelerator("CmdOrCtrl+Shift+S").
		OnClick(func(ctx *application.Context) {
			go func() {
				if _, err := svc.TakeScreenshot(); err != nil {
					slog.Error("screenshot from tray", "error", err)
				}
			}()
		})
	trayMenu.Add("Sense Clipboard").
		SetAccelerator("CmdOrCtrl+Shift+C").
		OnClick(func(ctx *application.Context) {
			go func() {
				if _, err := svc.SenseClipboard(); err != nil {
					slog.Error("clipboard from tray", "error", err)
				}
			}()
		})

	trayMenu.AddSeparator()
	trayMenu.Add("Start Listening").OnClick(func(ctx *application.Context) {
		go func() {
			if err := svc.StartListening(); err != nil {
				slog.Error("start listening from tray", "error", err)
			}
		}()
	})
	trayMenu.Add("Stop Listening").OnClick(func(ctx *application.Context) {
		go func() {
			if err := svc.StopListening(); err != nil {
				slog.Error("stop listening from tray", "error", err)
			}
		}()
	})

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			svc.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
