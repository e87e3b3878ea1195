// capture-run drives one capture→upload→analyze→persist run against the live
// Firebase project using an image file on disk in place of the device picker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/mccedddy/EczApp/pkg/bootstrap"
	"github.com/mccedddy/EczApp/pkg/classifier"
	"github.com/mccedddy/EczApp/pkg/domain/image"
	"github.com/mccedddy/EczApp/pkg/infrastructure/auth"
	"github.com/mccedddy/EczApp/pkg/infrastructure/sentry"
	"github.com/mccedddy/EczApp/pkg/media"
	"github.com/mccedddy/EczApp/pkg/pipeline"
	"github.com/mccedddy/EczApp/pkg/types"
)

type printer struct{}

func (printer) OnStateChange(prev, next pipeline.State) {
	if next.Message != "" {
		fmt.Printf("[%s → %s] %s: %s\n", prev.Stage, next.Stage, next.Title, next.Message)
		return
	}
	fmt.Printf("[%s → %s]\n", prev.Stage, next.Stage)
}

func (printer) OnNotice(n pipeline.Notice) {
	if n.Err != nil {
		fmt.Printf("notice: %s (%v)\n", n.Key, n.Err)
		return
	}
	fmt.Printf("notice: %s\n", n.Key)
}

func (printer) ShowAnalysis(ctx context.Context, record *types.AnalysisRecord) {
	fmt.Printf("analysis %s recorded for %s\n", record.ID, record.OwnerID)
	for k, v := range record.Result {
		fmt.Printf("  %s: %v\n", k, v)
	}
}

func main() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}

	imagePath := flag.String("image", "", "Path to a JPEG to submit")
	source := flag.String("source", string(image.SourceCamera), "Picker to simulate: camera or library")
	email := flag.String("email", "", "Signed-in user's email")
	uid := flag.String("uid", "", "Signed-in user's Firebase UID")
	refreshToken := flag.String("refresh-token", os.Getenv("FIREBASE_REFRESH_TOKEN"), "Firebase refresh token for the user")
	history := flag.Int("history", 0, "Print the N most recent analyses after the run")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: capture-run -image <file.jpg> -email <email> -refresh-token <token> [-source camera|library] [-history N]")
		os.Exit(1)
	}

	if err := run(*imagePath, image.Source(*source), *email, *uid, *refreshToken, *history); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(imagePath string, source image.Source, email, uid, refreshToken string, history int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := bootstrap.NewService(ctx, "capture-run")
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()
	defer sentry.Flush(2 * time.Second)

	tokens := auth.NewSecureTokenSource(svc.Config.APIKey, nil)
	if refreshToken != "" {
		tokens.SignIn(auth.Session{UserID: uid, Email: email, RefreshToken: refreshToken})
	}

	picker := &media.FilePicker{Path: imagePath}
	perms := media.StaticPermissions{image.SourceCamera: true, image.SourceLibrary: true}
	out := printer{}

	recorder := pipeline.NewRecorder(svc.DB, nil, nil)
	ctrl := pipeline.NewController(pipeline.Options{
		Media:       media.NewAcquirer(perms, picker, nil),
		Credentials: tokens,
		Uploader:    pipeline.NewUploader(svc.Store, svc.DB, nil, nil),
		Analyzer:    pipeline.NewAnalyzer(classifier.NewClient(svc.Config.ClassifierURL, nil), nil),
		Recorder:    recorder,
		Navigator:   out,
		Publisher:   svc.Pub,
	})
	ctrl.Subscribe(out)

	if source == image.SourceLibrary {
		err = ctrl.PickFromLibrary(ctx)
	} else {
		err = ctrl.CaptureFromDevice(ctx)
	}
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if _, err := ctrl.Save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if history > 0 {
		principal, err := tokens.PrincipalID(ctx)
		if err != nil {
			return fmt.Errorf("resolving user: %w", err)
		}
		records, err := recorder.History(ctx, principal, history)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSEVERITY")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%v\n", r.ID, r.Result["severity"])
		}
		w.Flush()
	}
	return nil
}
