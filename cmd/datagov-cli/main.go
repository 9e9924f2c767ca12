// Command datagov-cli downloads one dataset interactively and prints it, or
// asks the chatbot a single question.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"datagovchat/internal/config"
	"datagovchat/internal/logging"
	"datagovchat/internal/models"
	"datagovchat/internal/notify"
	"datagovchat/internal/redis"
	"datagovchat/internal/service/chatbot"
	"datagovchat/internal/service/dataset"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("DATAGOVCHAT_CONFIG"), "path to config.json")
		ask        = flag.String("ask", "", "ask the chatbot one question and exit")
		resourceID = flag.String("dataset", "", "with -ask, include a preview of this downloaded resource")
		output     = flag.String("output", "", "output folder for downloads (default from config)")
		watch      = flag.Bool("watch", false, "print downloads announced by the service until interrupted")
	)
	flag.Parse()

	boot := logging.New(os.Stderr)
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	sink, err := logging.Open(cfg.BasicConfig.LogFile, cfg.BasicConfig.LogMaxSizeMB)
	if err != nil {
		boot.Fatal().Err(err).Msg("open log file")
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *watch:
		err = runWatch(ctx, cfg, os.Stdout)
	case *ask != "":
		err = runAsk(ctx, cfg, sink, *ask, *resourceID, *output, os.Stdout)
	default:
		folder := *output
		if folder == "" {
			folder = cfg.BasicConfig.OutputFolder
		}
		err = runDownload(ctx, dataset.FromConfig(cfg, sink.Logger()), folder, os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		sink.Close()
		os.Exit(1)
	}
}

func runDownload(ctx context.Context, fetcher *dataset.Fetcher, folder string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	apiKey, err := prompt(reader, out, "Enter your API key: ")
	if err != nil {
		return err
	}
	endpoint, err := prompt(reader, out, "Enter the API endpoint: ")
	if err != nil {
		return err
	}

	res, err := fetcher.Fetch(ctx, dataset.Request{
		Credential:   apiKey,
		ResourceID:   endpoint,
		OutputFolder: folder,
	})
	if err != nil {
		return err
	}

	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", res.FilePath, err)
	}
	fmt.Fprintf(out, "Contents of the downloaded CSV file (%s):\n", res.FilePath)
	fmt.Fprintln(out, string(data))
	dataset.View(out, res.FilePath)
	return nil
}

func runAsk(ctx context.Context, cfg *config.Config, sink *logging.Sink, query, resourceID, folder string, out io.Writer) error {
	responder, err := chatbot.FromConfig(ctx, cfg, sink.Logger())
	if err != nil {
		return err
	}
	var path string
	if resourceID != "" {
		if err := dataset.ValidateResourceID(resourceID); err != nil {
			return err
		}
		if folder == "" {
			folder = cfg.BasicConfig.OutputFolder
		}
		path = dataset.FilePath(folder, resourceID)
	}
	answer, err := responder.RespondWithDataset(ctx, query, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Chatbot Response: %s\n", answer)
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	cfg.Redis.Enabled = true
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", notify.Channel)
	return notify.Listen(ctx, client, func(d *models.Download) {
		fmt.Fprintf(out, "%s  %s  %s (%d bytes)\n", d.CreatedAt.Format(logging.TimeFormat), d.ResourceID, d.FilePath, d.SizeBytes)
	})
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
