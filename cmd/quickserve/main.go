package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"quickserve/internal/auth"
	"quickserve/internal/config"
	"quickserve/internal/httpserver"
	"quickserve/internal/renderer"
	"quickserve/internal/version"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if len(os.Args) > 1 && os.Args[1] == "hash" {
		hashCmd(os.Args[2:])
		return
	}

	var (
		addr      = flag.String("addr", "", "listen address (default 0.0.0.0:8080)")
		root      = flag.String("root", "", "directory to serve (required if -config is not set)")
		cfgPath   = flag.String("config", "", "path to config json (optional)")
		overwrite = flag.Bool("overwrite", false, "allow uploads to overwrite existing files")
		enUpload  = flag.Bool("upload", false, "enable file upload")
		enMkdir   = flag.Bool("mkdir", false, "enable directory creation")
		enDav     = flag.Bool("dav", false, "enable the WebDAV endpoint at /dav/")
		color     = flag.String("color", "", "color scheme: "+strings.Join(renderer.SchemeNames(), ", "))
		colorDark = flag.String("color-dark", "", "dark-mode color scheme")
		noFooter  = flag.Bool("hide-version-footer", false, "hide the version footer on rendered pages")
		accounts  multiFlag
	)
	flag.Var(&accounts, "auth", "account spec user:pass, user:sha256:<hex>, user:sha512:<hex> or user:bcrypt:<hash> (repeatable)")
	flag.Parse()

	var file config.File
	if *cfgPath != "" {
		var err error
		file, err = config.LoadFile(*cfgPath)
		if err != nil {
			fatal(log, "load config", err)
		}
	}
	// Flags override the config file.
	if *root != "" {
		file.Root = *root
	}
	if *addr != "" {
		file.Addr = *addr
	}
	if len(accounts) > 0 {
		file.Auth = append(file.Auth, accounts...)
	}
	if *overwrite {
		file.OverwriteFiles = true
	}
	if *enUpload {
		file.EnableUpload = true
	}
	if *enMkdir {
		file.EnableMkdir = true
	}
	if *enDav {
		file.EnableDAV = true
	}
	if *color != "" {
		file.ColorScheme = *color
	}
	if *colorDark != "" {
		file.ColorSchemeDark = *colorDark
	}
	if *noFooter {
		file.HideVersionFooter = true
	}
	for _, name := range []string{file.ColorScheme, file.ColorSchemeDark} {
		if name != "" && !renderer.ValidScheme(name) {
			fatal(log, "config", fmt.Errorf("unknown color scheme %q, expected one of %s", name, strings.Join(renderer.SchemeNames(), ", ")))
		}
	}

	cfg, err := config.Resolve(file)
	if err != nil {
		fatal(log, "config", err)
	}

	srv := httpserver.New(cfg, log)
	log.Info("listening", "addr", cfg.Addr, "root", cfg.Root, "auth", cfg.HasAuth(), "version", version.Version)
	if cfg.EnableDAV {
		log.Info("webdav endpoint enabled", "prefix", "/dav/")
	}
	if err := http.ListenAndServe(cfg.Addr, withHeaders(srv.Handler())); err != nil {
		fatal(log, "listen", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// hashCmd prints the hashed account-spec forms of a password, ready to paste
// after "user:".
func hashCmd(args []string) {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	var (
		password = fs.String("p", "", "password (required)")
		method   = fs.String("method", "", "only print one method: sha256, sha512 or bcrypt")
		cost     = fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	)
	_ = fs.Parse(args)
	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: quickserve hash -p <password> [-method sha256|sha512|bcrypt]")
		os.Exit(2)
	}
	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "invalid cost %d (min=%d max=%d)\n", *cost, bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(2)
	}
	switch *method {
	case "", "sha256", "sha512", "bcrypt":
	default:
		fmt.Fprintf(os.Stderr, "unknown method %q\n", *method)
		os.Exit(2)
	}

	print := func(m string) bool { return *method == "" || *method == m }
	if print("sha256") {
		fmt.Printf("sha256:%s\n", hex.EncodeToString(auth.HashSha256(*password)))
	}
	if print("sha512") {
		fmt.Printf("sha512:%s\n", hex.EncodeToString(auth.HashSha512(*password)))
	}
	if print("bcrypt") {
		h, err := bcrypt.GenerateFromPassword([]byte(*password), *cost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("bcrypt:%s\n", string(h))
	}
}

// withHeaders applies response hardening common to every route.
func withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}
