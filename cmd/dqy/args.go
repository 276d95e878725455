package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dnsquery/dqy/dnswire"
)

// cliOptions is the parsed command line. The grammar is
// `dqy [qtype...] [domain] [@resolver] [dash-options...]`: positional
// tokens may appear in any order among themselves but precede all
// dash-options. DQY_FLAGS contributes extra tokens, applied first.
type cliOptions struct {
	qtypes []uint16
	qclass uint16
	domain string
	server string

	// transport
	tcp, dot, https, doq bool
	port                 uint16
	ipv4, ipv6           bool
	timeoutMS            uint64
	sni, alpn, certFile  string

	// EDNS
	bufsize    uint16
	bufsizeSet bool
	noOPT      bool
	dnssec     bool
	padding    bool
	cookie     bool
	nsid       bool
	ede        bool
	zoneversion bool

	// query behavior
	noRecurse, cd, trace, puny bool

	// output
	jsonOut, jsonPretty   bool
	short, stats          bool
	noColors              bool
	verbose               int
	logFile, script       string
	writeQuery, writeResp string

	ratelimit uint64
}

const usage = `Usage: dqy [qtype...] [domain] [@resolver] [options...]

Transport: --tcp --dot --https|--doh --doq --port N -4 -6 --timeout MS
           --sni HOST --alpn TOKEN --cert FILE
EDNS:      --bufsize N --no-opt --dnssec --padding --cookie --nsid --ede
           --zoneversion
Query:     --no-recurse --cd --trace --puny --ratelimit N
Output:    --json --json-pretty --short --stats --no-colors -v..-vvvvv
           --log FILE -l SCRIPT --wq FILE --wr FILE
`

// envFlags is the environment variable holding extra CLI tokens.
const envFlags = "DQY_FLAGS"

// parseArgs parses the environment tokens followed by argv. Positionals
// and dash-options are partitioned per source so that DQY_FLAGS options
// never end up before command-line positionals.
func parseArgs(argv []string) (*cliOptions, error) {
	opts := &cliOptions{}

	var positionals, dashes []string
	for _, src := range [][]string{strings.Fields(os.Getenv(envFlags)), argv} {
		seenDash := false
		for _, tok := range src {
			if strings.HasPrefix(tok, "-") {
				seenDash = true
			}
			if seenDash {
				dashes = append(dashes, tok)
			} else {
				positionals = append(positionals, tok)
			}
		}
	}

	for _, tok := range positionals {
		if err := opts.addPositional(tok); err != nil {
			return nil, err
		}
	}
	if err := opts.parseDashes(dashes); err != nil {
		return nil, err
	}

	if len(opts.qtypes) == 0 {
		opts.qtypes = []uint16{dnswire.TypeA}
	}
	if opts.domain == "" {
		return nil, fmt.Errorf("missing domain to query\n\n%s", usage)
	}
	return opts, nil
}

func (o *cliOptions) addPositional(tok string) error {
	if strings.HasPrefix(tok, "@") {
		o.server = strings.TrimPrefix(tok, "@")
		return nil
	}
	if t, ok := dnswire.StringToType(tok); ok {
		o.qtypes = append(o.qtypes, t)
		return nil
	}
	// A class mnemonic (CH for diagnostic queries, mostly) is accepted in
	// the dig manner as a bare positional.
	switch strings.ToUpper(tok) {
	case "IN", "CH", "HS":
		o.qclass, _ = dnswire.StringToClass(tok)
		return nil
	}
	if o.domain != "" {
		return fmt.Errorf("unexpected positional argument %q (domain already given as %q)", tok, o.domain)
	}
	o.domain = tok
	return nil
}

func (o *cliOptions) parseDashes(tokens []string) error {
	// next consumes the value of an option, either from the same token
	// after "=" or from the following token.
	i := 0
	next := func(name, inline string) (string, error) {
		if inline != "" {
			return inline, nil
		}
		i++
		if i >= len(tokens) {
			return "", fmt.Errorf("option %s requires a value", name)
		}
		return tokens[i], nil
	}

	for ; i < len(tokens); i++ {
		name, inline, _ := strings.Cut(tokens[i], "=")

		switch name {
		case "--tcp":
			o.tcp = true
		case "--dot":
			o.dot = true
		case "--https", "--doh":
			o.https = true
		case "--doq":
			o.doq = true
		case "-4":
			o.ipv4 = true
		case "-6":
			o.ipv6 = true
		case "--no-opt":
			o.noOPT = true
		case "--dnssec":
			o.dnssec = true
		case "--padding":
			o.padding = true
		case "--cookie":
			o.cookie = true
		case "--nsid":
			o.nsid = true
		case "--ede":
			o.ede = true
		case "--zoneversion":
			o.zoneversion = true
		case "--no-recurse":
			o.noRecurse = true
		case "--cd":
			o.cd = true
		case "--trace":
			o.trace = true
		case "--puny":
			o.puny = true
		case "--json":
			o.jsonOut = true
		case "--json-pretty":
			o.jsonOut = true
			o.jsonPretty = true
		case "--short":
			o.short = true
		case "--stats":
			o.stats = true
		case "--no-colors":
			o.noColors = true
		case "-v", "-vv", "-vvv", "-vvvv", "-vvvvv":
			o.verbose = len(name) - 1
		case "--port":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return err
			}
			o.port = uint16(n)
		case "--timeout":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return err
			}
			o.timeoutMS = n
		case "--bufsize":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return err
			}
			o.bufsize = uint16(n)
			o.bufsizeSet = true
		case "--ratelimit":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(v, 10, 31)
			if err != nil {
				return err
			}
			o.ratelimit = n
		case "--sni":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.sni = v
		case "--alpn":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.alpn = v
		case "--cert":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.certFile = v
		case "--log":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.logFile = v
		case "-l":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.script = v
		case "--wq":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.writeQuery = v
		case "--wr":
			v, err := next(name, inline)
			if err != nil {
				return err
			}
			o.writeResp = v
		case "-h", "--help":
			fmt.Print(usage)
			os.Exit(0)
		default:
			return fmt.Errorf("unknown option %q\n\n%s", tokens[i], usage)
		}
	}
	return nil
}
