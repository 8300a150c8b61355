package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/cheggaaa/pb/v3"

	"ytupload"
	"ytupload/config"
	"ytupload/metadata"
	"ytupload/upload"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth-url":
		cmdAuthURL(args)
	case "auth":
		cmdAuth(args)
	case "upload":
		cmdUpload(args)
	case "categories":
		cmdCategories(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytupload - resumable YouTube video uploader

Usage:
  ytupload auth-url                      Print the OAuth consent URL
  ytupload auth <code>                   Exchange an authorization code and store credentials
  ytupload upload [flags] <file>         Upload a video
  ytupload categories [flags]            List video categories
  ytupload help                          Show this help message

Examples:
  ytupload auth-url
  ytupload auth 4/0AfJohXn...
  ytupload upload -p snippet.title="My talk" -p snippet.tags[]=go,talk -p status.privacyStatus=unlisted talk.mp4
  ytupload upload -param notifySubscribers=false -quiet talk.mp4
  ytupload categories -region GB
  ytupload categories -offline

Configuration is read from YTUPLOAD_* environment variables, .env files and
ytupload.json / ytupload.yaml. For help on a command: ytupload <command> -h
`)
}

// loadClient loads configuration and builds a client, exiting on failure.
func loadClient() *ytupload.Client {
	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			fmt.Fprintf(os.Stderr, "Error: missing configuration: %s\n", strings.Join(missing.Keys, ", "))
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		}
		os.Exit(1)
	}

	client, err := ytupload.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return client
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdAuthURL(args []string) {
	fs := flag.NewFlagSet("auth-url", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload auth-url\n\nOpen the printed URL, approve access and pass the returned code to 'ytupload auth'.\n")
	}
	fs.Parse(args)

	fmt.Println(loadClient().CreateAuthURL())
}

func cmdAuth(args []string) {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload auth <code>\n")
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing authorization code\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := loadClient().Authenticate(ctx, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error authenticating: %v\n", err)
		if errors.Is(err, ytupload.ErrInvalidGrant) {
			fmt.Fprintf(os.Stderr, "The code was already used or has expired; run 'ytupload auth-url' for a new one.\n")
		}
		os.Exit(1)
	}
	fmt.Println("Credentials stored.")
}

// keyValueFlag collects repeated key=value flags.
type keyValueFlag map[string]string

func (f keyValueFlag) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f keyValueFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[strings.TrimSpace(k)] = v
	return nil
}

func cmdUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	props := keyValueFlag{}
	params := keyValueFlag{}
	fs.Var(props, "p", "Video property as dotted.key=value (repeatable), e.g. snippet.title=Hello or snippet.tags[]=a,b")
	fs.Var(params, "param", "Extra insert query parameter as key=value (repeatable)")
	part := fs.String("part", upload.DefaultPart, "Resource parts to write")
	quiet := fs.Bool("quiet", false, "Suppress the progress bar")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload upload [flags] <file>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing file\n")
		fs.Usage()
		os.Exit(1)
	}
	filePath := fs.Arg(0)

	if privacy := props["status.privacyStatus"]; privacy != "" && !metadata.ValidPrivacy(privacy) {
		fmt.Fprintf(os.Stderr, "Error: invalid status.privacyStatus %q (use %s, %s or %s)\n",
			privacy, metadata.PrivacyPublic, metadata.PrivacyUnlisted, metadata.PrivacyPrivate)
		os.Exit(1)
	}
	if _, ok := props["snippet.categoryId"]; !ok {
		props["snippet.categoryId"] = strconv.Itoa(metadata.CategoryPeopleAndBlogs)
	}

	client := loadClient()

	ctx, cancel := signalContext()
	defer cancel()

	var bar *pb.ProgressBar
	progress := func(p upload.Progress) {
		if *quiet {
			return
		}
		if bar == nil {
			bar = pb.Full.Start64(p.TotalBytes)
			bar.Set(pb.Bytes, true)
		}
		bar.SetCurrent(p.BytesSent)
		bar.Set("prefix", fmt.Sprintf("chunk %d/%d ", p.Chunk, p.Chunks))
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Uploading %s...\n", filePath)
	}
	video, err := client.Upload(ctx, filePath, props,
		ytupload.WithPart(*part),
		ytupload.WithParams(params),
		ytupload.WithProgress(progress),
	)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error uploading: %v\n", err)
		if ytupload.IsReauthRequired(err) {
			fmt.Fprintf(os.Stderr, "Run 'ytupload auth-url' and 'ytupload auth <code>' to authorize.\n")
		}
		os.Exit(1)
	}

	fmt.Printf("Uploaded video %s\n", video.Id)
	fmt.Printf("https://www.youtube.com/watch?v=%s\n", video.Id)
}

func cmdCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	region := fs.String("region", ytupload.DefaultRegion, "ISO 3166-1 alpha-2 region code")
	offline := fs.Bool("offline", false, "Print the built-in table without calling the API")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ytupload categories [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	var cats map[string]string
	if *offline {
		cats = metadata.Categories()
	} else {
		ctx, cancel := signalContext()
		defer cancel()

		var err error
		cats, err = loadClient().Categories(ctx, *region)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing categories: %v\n", err)
			os.Exit(1)
		}
	}

	ids := make([]string, 0, len(cats))
	for id := range cats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", id, cats[id])
	}
	w.Flush()
}
