// Command foodscan is the interactive client: photograph a meal elsewhere,
// point it at the image file, get a nutrition estimate and keep history in
// the cloud account.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/client/classifier"
	"github.com/atinyakov/FoodScan/internal/client/store"
	"github.com/atinyakov/FoodScan/internal/config"
	"github.com/atinyakov/FoodScan/internal/logger"
	"github.com/atinyakov/FoodScan/internal/service"
)

var (
	version   string
	buildDate string
)

// recentOverlay presents the recent-scans list. Opening it activates the
// synchronizer; closing it stops the refresh loop.
type recentOverlay struct {
	sync *service.Synchronizer
}

func (o *recentOverlay) Open(ctx context.Context) {
	o.sync.Activate(ctx)
	o.render()
}

func (o *recentOverlay) Close() {
	o.sync.Deactivate()
}

func (o *recentOverlay) render() {
	scans := o.sync.Snapshot()
	if len(scans) == 0 {
		fmt.Println("No recent scans.")
		return
	}
	fmt.Println("Recent AI Scans:")
	for _, s := range scans {
		fmt.Printf("  %s - Calories: %s | Fat: %s | Carbs: %s | Protein: %s (%s)\n",
			s.FoodName, s.Calories, s.Fat, s.Carbs, s.Protein,
			s.CreatedAt.Local().Format(time.DateTime))
	}
}

// repl runs the interactive shell loop.
func repl(
	ctx context.Context,
	accounts *store.Client,
	acq *service.Acquisition,
	gate *service.SessionGate,
	overlay service.Presenter,
) {
	scanner := bufio.NewScanner(os.Stdin)
	var last *service.ScanResult

	for {
		fmt.Print("foodscan> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, cloud, login, register, logout, scan <image>, discard, recent, close, whoami, exit")
		case "cloud":
			// Focus-in to the gated area.
			switch gate.Resolve(ctx) {
			case service.Authenticated:
				sess, _ := accounts.Session()
				fmt.Printf("Signed in as %s\n", sess.Email)
			default:
				fmt.Println("Not signed in. Use 'login' or 'register'.")
			}
		case "login", "register":
			email, password := promptCredentials(scanner)
			var err error
			if args[0] == "login" {
				_, err = accounts.SignIn(ctx, email, password)
			} else {
				err = accounts.SignUp(ctx, email, password)
			}
			if err != nil {
				// The store's message is shown verbatim.
				fmt.Println("Authentication Error:", err)
				continue
			}
			if args[0] == "login" {
				fmt.Println("You have signed in successfully.")
			} else {
				fmt.Println("You have signed up successfully, verify your email!")
			}
			gate.Resolve(ctx)
		case "logout":
			if err := gate.SignOut(ctx); err != nil {
				fmt.Println("Sign out failed:", err)
				continue
			}
			fmt.Println("Signed out.")
		case "scan":
			if len(args) < 2 {
				fmt.Println("Usage: scan <image path>")
				continue
			}
			fmt.Println("Analyzing...")
			res, err := acq.Acquire(ctx, args[1])
			if err != nil {
				fmt.Println("No result from AI.")
				continue
			}
			last = res
			cls := res.Classification
			fmt.Println(cls.Label)
			fmt.Printf("  Calories: %s\n  Carbs: %s\n  Protein: %s\n  Fat: %s\n",
				cls.Nutrition.Calories, cls.Nutrition.Carbs, cls.Nutrition.Protein, cls.Nutrition.Fat)
			fmt.Println("  Accuracy:", cls.AccuracyText())
		case "discard":
			if err := acq.Discard(ctx, last); err != nil {
				fmt.Println("Could not delete scan:", err)
				continue
			}
			fmt.Println("Scan deleted.")
			last = nil
		case "recent":
			overlay.Open(ctx)
		case "close":
			overlay.Close()
		case "whoami":
			sess, err := accounts.Session()
			if err != nil {
				fmt.Println("Not signed in.")
				continue
			}
			fmt.Println(sess.Email)
		case "exit":
			overlay.Close()
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func promptCredentials(scanner *bufio.Scanner) (email, password string) {
	fmt.Print("email: ")
	if scanner.Scan() {
		email = strings.TrimSpace(scanner.Text())
	}
	fmt.Print("password: ")
	if scanner.Scan() {
		password = strings.TrimSpace(scanner.Text())
	}
	return email, password
}

func main() {
	options := config.Parse()

	if options.ClassifierURL == "" || options.StoreURL == "" {
		fmt.Fprintln(os.Stderr, "classifier and store URLs are required (-api, -store or API_URL, STORE_URL)")
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init("Info"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	zapLogger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	accounts := store.New(httpClient, options.StoreURL, options.StoreKey, options.SessionFile, zapLogger)
	cls := classifier.New(httpClient, options.ClassifierURL, zapLogger)

	acq := service.NewAcquisition(cls, accounts, accounts, zapLogger)
	syncer := service.NewSynchronizer(accounts, accounts,
		time.Duration(options.PollSeconds)*time.Second, zapLogger)
	gate := service.NewSessionGate(accounts, zapLogger)

	repl(context.Background(), accounts, acq, gate, &recentOverlay{sync: syncer})
}
