package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const minutesPerDay = 24 * 60

// Config captures all command-line options required for a generation run.
type Config struct {
	// Content pools.
	ToList     string
	FromList   string
	BodyDir    string
	HTMLDir    string
	AttachDir  string
	RelayHosts string

	// Traffic shape.
	HTMLPct        int
	AttachPct      int
	SubjectLen     int
	NumEmails      int
	SelectionMode  string
	MaxAttachments int
	Seed           int64
	HasSeed        bool

	// Temporal distribution.
	DateStart        time.Time
	DateEnd          time.Time
	HasDateRange     bool
	BusinessStartMin int
	BusinessEndMin   int
	BusinessBias     int

	// Output.
	OutputFormat string
	OutputDir    string
	MboxPath     string
	DryRun       bool

	// IMAP sink.
	IMAPHost           string
	IMAPPort           int
	IMAPUser           string
	IMAPPass           string
	UseTLS             bool
	InsecureSkipVerify bool
	TargetFolder       string

	// DKIM signing.
	DKIMSelector string
	DKIMKeyPath  string
	DKIMDomain   string

	// Logging.
	LogLevel string
	LogDir   string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	flags.String("to-list", "", "Path to file with recipient addresses, one per line")
	flags.String("from-list", "", "Path to file with sender addresses, one per line")
	flags.String("body-dir", "", "Directory with plain text body samples (.txt, .md, .text)")
	flags.String("html-dir", "", "Directory with HTML body samples (.html, .htm)")
	flags.String("attach-dir", "", "Directory with attachment files")
	flags.String("relay-hosts", "", "Path to file with relay hostnames, one per line")

	flags.String("profile", "", "Predefined traffic profile: mixed_business, internal_ops, marketing")
	flags.String("profile-file", "", "YAML file with user-defined traffic profiles")
	flags.Int("html-pct", 30, "Percentage of emails rendered as HTML (0-100)")
	flags.Int("attach-pct", 10, "Percentage of emails carrying attachments (0-100)")
	flags.Int("subject-len", 50, "Number of body characters used for the subject (>= 1)")
	flags.Int("num-emails", 100, "Number of emails to generate (> 0)")
	flags.String("selection-mode", "random", "Content selection mode: random or linear")
	flags.Int("max-attachments", 4, "Upper cap on attachments per email (>= 1)")
	flags.Int64("seed", 0, "Random seed for reproducible output")

	flags.String("date-start", "", "Start date for randomized timestamps (YYYY-MM-DD, UTC)")
	flags.String("date-end", "", "End date for randomized timestamps (YYYY-MM-DD, UTC)")
	flags.String("business-hours", "08:00-18:00", "Business hours window (HH:MM-HH:MM)")
	flags.Int("business-bias", 70, "Percentage of timestamps within business hours (0-100)")

	flags.String("output-format", "eml", "Output format: eml, mbox or imap")
	flags.String("output-dir", "output_emails", "Directory for generated .eml files")
	flags.String("mbox-path", "", "Target file for mbox output")
	flags.Bool("dry-run", false, "Generate without persisting, emit stats only")

	flags.String("imap-host", "", "IMAP server hostname for imap output")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("imap-user", "", "IMAP username")
	flags.String("imap-pass", "", "IMAP password (falls back to IMAP_PASS env var)")
	flags.Bool("use-tls", true, "Use TLS for the IMAP connection")
	flags.Bool("insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.String("target-folder", "INBOX", "Target IMAP folder for generated mail")

	flags.String("dkim-selector", "", "DKIM selector, enables signing together with --dkim-key")
	flags.String("dkim-key", "", "PEM encoded private key for DKIM signing")
	flags.String("dkim-domain", "", "DKIM signing domain (defaults to the sender domain)")

	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (stdout only when empty)")

	for _, name := range []string{"to-list", "from-list", "body-dir", "html-dir", "attach-dir", "relay-hosts"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			return err
		}
	}

	return nil
}

// LoadConfig converts the parsed Cobra flags into a Config struct with
// profile resolution and validation.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	var cfg Config
	var err error

	if cfg.ToList, err = flags.GetString("to-list"); err != nil {
		return Config{}, err
	}
	if cfg.FromList, err = flags.GetString("from-list"); err != nil {
		return Config{}, err
	}
	if cfg.BodyDir, err = flags.GetString("body-dir"); err != nil {
		return Config{}, err
	}
	if cfg.HTMLDir, err = flags.GetString("html-dir"); err != nil {
		return Config{}, err
	}
	if cfg.AttachDir, err = flags.GetString("attach-dir"); err != nil {
		return Config{}, err
	}
	if cfg.RelayHosts, err = flags.GetString("relay-hosts"); err != nil {
		return Config{}, err
	}

	if cfg.HTMLPct, err = flags.GetInt("html-pct"); err != nil {
		return Config{}, err
	}
	if cfg.AttachPct, err = flags.GetInt("attach-pct"); err != nil {
		return Config{}, err
	}
	if cfg.SubjectLen, err = flags.GetInt("subject-len"); err != nil {
		return Config{}, err
	}
	if cfg.NumEmails, err = flags.GetInt("num-emails"); err != nil {
		return Config{}, err
	}
	if cfg.SelectionMode, err = flags.GetString("selection-mode"); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttachments, err = flags.GetInt("max-attachments"); err != nil {
		return Config{}, err
	}
	if cfg.Seed, err = flags.GetInt64("seed"); err != nil {
		return Config{}, err
	}
	cfg.HasSeed = flags.Changed("seed")

	if cfg.OutputFormat, err = flags.GetString("output-format"); err != nil {
		return Config{}, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return Config{}, err
	}
	if cfg.MboxPath, err = flags.GetString("mbox-path"); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return Config{}, err
	}

	if cfg.IMAPHost, err = flags.GetString("imap-host"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPPort, err = flags.GetInt("imap-port"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPUser, err = flags.GetString("imap-user"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPPass, err = flags.GetString("imap-pass"); err != nil {
		return Config{}, err
	}
	if cfg.UseTLS, err = flags.GetBool("use-tls"); err != nil {
		return Config{}, err
	}
	if cfg.InsecureSkipVerify, err = flags.GetBool("insecure-skip-verify"); err != nil {
		return Config{}, err
	}
	if cfg.TargetFolder, err = flags.GetString("target-folder"); err != nil {
		return Config{}, err
	}
	if cfg.IMAPPass == "" {
		cfg.IMAPPass = os.Getenv("IMAP_PASS")
	}

	if cfg.DKIMSelector, err = flags.GetString("dkim-selector"); err != nil {
		return Config{}, err
	}
	if cfg.DKIMKeyPath, err = flags.GetString("dkim-key"); err != nil {
		return Config{}, err
	}
	if cfg.DKIMDomain, err = flags.GetString("dkim-domain"); err != nil {
		return Config{}, err
	}

	if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = flags.GetString("log-dir"); err != nil {
		return Config{}, err
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	profileName, err := flags.GetString("profile")
	if err != nil {
		return Config{}, err
	}
	profileFile, err := flags.GetString("profile-file")
	if err != nil {
		return Config{}, err
	}
	if profileName != "" {
		profile, err := resolveProfile(profileName, profileFile)
		if err != nil {
			return Config{}, err
		}
		applyProfile(&cfg, profile, flags)
	}

	dateStart, err := flags.GetString("date-start")
	if err != nil {
		return Config{}, err
	}
	dateEnd, err := flags.GetString("date-end")
	if err != nil {
		return Config{}, err
	}
	if dateStart != "" || dateEnd != "" {
		if dateStart == "" || dateEnd == "" {
			return Config{}, fmt.Errorf("--date-start and --date-end must be provided together")
		}
		start, err := parseDateUTC(dateStart)
		if err != nil {
			return Config{}, err
		}
		end, err := parseDateUTC(dateEnd)
		if err != nil {
			return Config{}, err
		}
		cfg.DateStart = start
		cfg.DateEnd = end.Add(24*time.Hour - time.Second)
		cfg.HasDateRange = true
	}

	businessHours, err := flags.GetString("business-hours")
	if err != nil {
		return Config{}, err
	}
	if cfg.BusinessStartMin, cfg.BusinessEndMin, err = parseBusinessHours(businessHours); err != nil {
		return Config{}, err
	}
	if cfg.BusinessBias, err = flags.GetInt("business-bias"); err != nil {
		return Config{}, err
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.HTMLPct < 0 || cfg.HTMLPct > 100 {
		return fmt.Errorf("--html-pct must be between 0 and 100")
	}
	if cfg.AttachPct < 0 || cfg.AttachPct > 100 {
		return fmt.Errorf("--attach-pct must be between 0 and 100")
	}
	if cfg.SubjectLen < 1 {
		return fmt.Errorf("--subject-len must be >= 1")
	}
	if cfg.NumEmails <= 0 {
		return fmt.Errorf("--num-emails must be > 0")
	}
	if cfg.MaxAttachments < 1 {
		return fmt.Errorf("--max-attachments must be >= 1")
	}

	switch cfg.SelectionMode {
	case "random", "linear":
	default:
		return fmt.Errorf("invalid --selection-mode: %s", cfg.SelectionMode)
	}

	if cfg.HasDateRange {
		if cfg.DateStart.After(cfg.DateEnd) {
			return fmt.Errorf("--date-start cannot be after --date-end")
		}
		if cfg.BusinessBias < 0 || cfg.BusinessBias > 100 {
			return fmt.Errorf("--business-bias must be between 0 and 100")
		}
		if cfg.BusinessStartMin >= cfg.BusinessEndMin {
			return fmt.Errorf("--business-hours must have start < end within the same day")
		}
	}

	switch cfg.OutputFormat {
	case "eml":
		if cfg.OutputDir == "" {
			return fmt.Errorf("--output-dir is required for eml output")
		}
	case "mbox":
		if cfg.MboxPath == "" {
			return fmt.Errorf("--mbox-path is required for mbox output")
		}
	case "imap":
		if cfg.IMAPHost == "" {
			return fmt.Errorf("--imap-host is required for imap output")
		}
		if cfg.IMAPUser == "" {
			return fmt.Errorf("--imap-user is required for imap output")
		}
		if cfg.IMAPPass == "" && !cfg.DryRun {
			return fmt.Errorf("IMAP password must be provided via --imap-pass or IMAP_PASS env var")
		}
		if cfg.IMAPPort <= 0 || cfg.IMAPPort > 65535 {
			return fmt.Errorf("--imap-port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("invalid --output-format: %s", cfg.OutputFormat)
	}

	if (cfg.DKIMSelector == "") != (cfg.DKIMKeyPath == "") {
		return fmt.Errorf("--dkim-selector and --dkim-key must be provided together")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}

func parseDateUTC(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", value)
	}
	return t.UTC(), nil
}

var businessHoursRe = regexp.MustCompile(`^(\d{2}):(\d{2})-(\d{2}):(\d{2})$`)

// parseBusinessHours converts a HH:MM-HH:MM window into minutes from
// midnight. An end hour of 24 (with minute 00) means end of day.
func parseBusinessHours(spec string) (int, int, error) {
	m := businessHoursRe.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid --business-hours %q, use HH:MM-HH:MM", spec)
	}

	var sh, sm, eh, em int
	fmt.Sscanf(m[1], "%d", &sh)
	fmt.Sscanf(m[2], "%d", &sm)
	fmt.Sscanf(m[3], "%d", &eh)
	fmt.Sscanf(m[4], "%d", &em)

	if sh < 0 || sh > 23 || sm < 0 || sm > 59 {
		return 0, 0, fmt.Errorf("invalid start time in --business-hours %q", spec)
	}
	if eh < 0 || eh > 24 || (eh < 24 && (em < 0 || em > 59)) || (eh == 24 && em != 0) {
		return 0, 0, fmt.Errorf("invalid end time in --business-hours %q", spec)
	}

	startMin := sh*60 + sm
	endMin := eh*60 + em
	if eh == 24 {
		endMin = minutesPerDay
	}
	return startMin, endMin, nil
}
