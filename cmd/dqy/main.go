package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/linkdata/rate"
	"github.com/sirupsen/logrus"

	"github.com/dnsquery/dqy"
	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(dqy.Classify(err))
	}
	if err := dqy.ValidUTF8(opts.domain); err != nil {
		fmt.Fprintf(os.Stderr, "domain: %v\n", err)
		return int(dqy.Classify(err))
	}
	if err := setupLogging(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(dqy.ExitLogger)
	}
	if opts.script != "" {
		logrus.Warnf("-l %s: scripting support is not built in; ignoring", opts.script)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := buildConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(dqy.Classify(err))
	}
	qopts := buildQueryOptions(opts)

	var result *dqy.Result
	if opts.trace {
		// Trace walks the delegation for a single QTYPE; the first one wins.
		qopts.Type = opts.qtypes[0]
		result, err = dqy.Trace(ctx, cfg, qopts)
	} else {
		var client *dqy.Client
		if client, err = dqy.NewClient(ctx, cfg); err == nil {
			defer client.Close()
			result, err = client.Run(ctx, qopts, opts.qtypes)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(dqy.Classify(err))
	}

	if err := writeDumps(opts, result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(dqy.ExitIO)
	}
	render(os.Stdout, opts, result)
	return int(dqy.ExitOK)
}

// setupLogging maps the -v count to a logrus level and redirects output
// to --log when given.
func setupLogging(opts *cliOptions) error {
	switch {
	case opts.verbose >= 3:
		logrus.SetLevel(logrus.TraceLevel)
	case opts.verbose == 2:
		logrus.SetLevel(logrus.DebugLevel)
	case opts.verbose == 1:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
	logrus.SetOutput(os.Stderr)
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: %v", dqy.ErrLogger, err)
		}
		logrus.SetOutput(f)
	}
	return nil
}

func buildConfig(opts *cliOptions) (dqy.Config, error) {
	cfg := dqy.Config{
		Server:  opts.server,
		Port:    opts.port,
		Timeout: time.Duration(opts.timeoutMS) * time.Millisecond,
		SNI:     opts.sni,
		ALPN:    opts.alpn,
	}
	switch {
	case opts.tcp:
		cfg.Kind, cfg.KindSet = transport.TCP, true
	case opts.dot:
		cfg.Kind, cfg.KindSet = transport.DoT, true
	case opts.https:
		cfg.Kind, cfg.KindSet = transport.DoH, true
	case opts.doq:
		cfg.Kind, cfg.KindSet = transport.DoQ, true
	}
	switch {
	case opts.ipv4:
		cfg.Family = transport.FamilyIPv4
	case opts.ipv6:
		cfg.Family = transport.FamilyIPv6
	}
	if opts.certFile != "" {
		pem, err := os.ReadFile(opts.certFile)
		if err != nil {
			return cfg, err
		}
		cfg.CertPEM = pem
	}
	if opts.ratelimit > 0 {
		maxrate := int32(opts.ratelimit)
		cfg.RateLimiter = rate.NewTicker(nil, &maxrate).C
	}
	return cfg, nil
}

func buildQueryOptions(opts *cliOptions) dqy.QueryOptions {
	class := opts.qclass
	if class == 0 {
		class = dnswire.ClassINET
	}
	q := dqy.QueryOptions{
		Name:             opts.domain,
		Class:            class,
		NoRecursion:      opts.noRecurse,
		CheckingDisabled: opts.cd,
		NoEDNS:           opts.noOPT,
		DNSSEC:           opts.dnssec,
		NSID:             opts.nsid,
		Padding:          opts.padding,
		Cookie:           opts.cookie,
		EDE:              opts.ede,
		Zoneversion:      opts.zoneversion,
	}
	if opts.bufsizeSet {
		q.BufSize = opts.bufsize
	}
	return q
}

// writeDumps writes the exact on-wire bytes of the first query and
// response for offline diffing against packet captures.
func writeDumps(opts *cliOptions, result *dqy.Result) error {
	if len(result.Exchanges) == 0 {
		return nil
	}
	first := result.Exchanges[0]
	if opts.writeQuery != "" {
		if err := os.WriteFile(opts.writeQuery, first.RawQuery, 0o644); err != nil {
			return err
		}
	}
	if opts.writeResp != "" {
		if err := os.WriteFile(opts.writeResp, first.RawResponse, 0o644); err != nil {
			return err
		}
	}
	return nil
}
