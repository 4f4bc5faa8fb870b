package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"flockwatch/internal/cmdlog"
	"flockwatch/internal/config"
	"flockwatch/internal/jobs"
	"flockwatch/internal/logging"
	"flockwatch/internal/metrics"
	"flockwatch/internal/store/followerdb"
	"flockwatch/internal/theme"
	"flockwatch/internal/tsdb"
	"flockwatch/internal/xclient"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "metrics":
		cmdMetrics()
	case "followers":
		cmdFollowers()
	case "unfollows":
		cmdUnfollows()
	case "watch":
		cmdWatch()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: flockwatch <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./flockwatch.yaml")
	fmt.Println("  metrics     Record account counters to InfluxDB")
	fmt.Println("  followers   Fetch the follower snapshot and reconcile it")
	fmt.Println("  unfollows   Sweep stale followers and record the unfollow count")
	fmt.Println("  watch       Run followers+unfollows+metrics on an interval")
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./flockwatch.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func commonFlags(fs *flag.FlagSet) (cfgPath *string, verbose *bool) {
	cfgPath = fs.String("config", "./flockwatch.yaml", "config path")
	verbose = fs.Bool("v", false, "verbose logging")
	return cfgPath, verbose
}

func mustLoadConfig(path string, verbose bool) config.Config {
	logging.SetVerbose(verbose)
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	metrics.StartServer(cfg.Metrics.Addr)
	return cfg
}

// newClient prefers OAuth1 user-context auth when a full credential set is
// configured, since the v1.1 follower endpoints remain available on API
// tiers where the v2 lookup is not.
func newClient(cfg config.Config) xclient.XClient {
	base := xclient.NewHTTPClient(cfg.Credentials.BearerToken)
	if c := cfg.Credentials; c.HasOAuth1() {
		return xclient.NewV1Client(base, c.ConsumerKey, c.ConsumerSecret, c.AccessToken, c.AccessSecret)
	}
	return base
}

func mustOpenDB(cfg config.Config) *followerdb.DB {
	db, err := followerdb.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Println("error: open store:", err)
		os.Exit(1)
	}
	return db
}

func mustOpenSink(cfg config.Config) *tsdb.Recorder {
	sink, err := tsdb.New(cfg.Influx)
	if err != nil {
		fmt.Println("error: influx:", err)
		os.Exit(1)
	}
	return sink
}

func cmdMetrics() {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath, *verbose)
	client := newClient(cfg)
	sink := mustOpenSink(cfg)
	defer sink.Close()
	err := cmdlog.Run("metrics", func() error {
		return jobs.RunMetricsOnce(context.Background(), client, sink, cfg)
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdFollowers() {
	fs := flag.NewFlagSet("followers", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	limit := fs.Int("limit", 0, "max followers to fetch (0 = all)")
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath, *verbose)
	client := newClient(cfg)
	db := mustOpenDB(cfg)
	defer db.Close()
	n := *limit
	if n == 0 {
		n = cfg.Tracker.FetchLimit
	}
	err := cmdlog.Run("followers", func() error {
		return jobs.RunFollowersOnce(context.Background(), db, client, cfg, n)
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdUnfollows() {
	fs := flag.NewFlagSet("unfollows", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath, *verbose)
	db := mustOpenDB(cfg)
	defer db.Close()
	sink := mustOpenSink(cfg)
	defer sink.Close()
	err := cmdlog.Run("unfollows", func() error {
		return jobs.RunUnfollowsOnce(context.Background(), db, sink, cfg)
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	cfg := mustLoadConfig(*cfgPath, *verbose)
	interval, err := cfg.Interval()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	client := newClient(cfg)
	db := mustOpenDB(cfg)
	defer db.Close()
	sink := mustOpenSink(cfg)
	defer sink.Close()
	logging.Info("watch_start", map[string]any{"interval": interval.String()})
	if err := jobs.RunWatchLoop(context.Background(), db, client, sink, cfg, interval); err != nil {
		os.Exit(1)
	}
}
