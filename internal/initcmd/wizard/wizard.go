package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/view"
)

// ErrCancelled is returned when the user aborts the wizard.
var ErrCancelled = errors.New("wizard cancelled")

// State holds all wizard-collected values.
type State struct {
	APIURL string
	Token  string
	// PageSize is the default page size until one is picked in the UI.
	PageSize int
	// ListTimeout and MutationTimeout are in seconds, as typed.
	ListTimeout     string
	MutationTimeout string
	Telemetry       bool
}

// FromTOML pre-populates the wizard from an existing config.toml. A nil
// existing config yields factory defaults.
func FromTOML(existing *config.TOMLConfig) *State {
	cfg := config.DefaultConfig()
	if existing != nil {
		existing.ApplyTo(cfg)
	}
	return &State{
		APIURL:          cfg.APIURL,
		Token:           cfg.AuthToken,
		PageSize:        view.PageSizeOrDefault(cfg.DefaultPageSize),
		ListTimeout:     seconds(cfg.ListTimeoutMs),
		MutationTimeout: seconds(cfg.MutationTimeoutMs),
		Telemetry:       cfg.IsTelemetryEnabled(),
	}
}

func seconds(ms int) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', -1, 64)
}

func millis(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(f * 1000)
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return fmt.Errorf("enter a URL such as http://localhost:8080/api")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("the URL must start with http:// or https://")
	}
	return nil
}

// ValidateTimeout accepts a positive number of seconds.
func ValidateTimeout(s string) error {
	if millis(s) <= 0 {
		return fmt.Errorf("enter a number of seconds greater than zero")
	}
	return nil
}

// ToTOMLConfig merges the answers into base so sections the wizard does not
// ask about survive a re-run. base may be nil.
func (s *State) ToTOMLConfig(base *config.TOMLConfig) *config.TOMLConfig {
	tc := &config.TOMLConfig{}
	if base != nil {
		*tc = *base
	}
	tc.API.URL = strings.TrimRight(strings.TrimSpace(s.APIURL), "/")
	tc.API.Token = strings.TrimSpace(s.Token)
	tc.API.ListTimeoutMs = millis(s.ListTimeout)
	tc.API.MutationTimeoutMs = millis(s.MutationTimeout)
	tc.UI.DefaultPageSize = s.PageSize
	telemetry := s.Telemetry
	tc.Telemetry.Enabled = &telemetry
	return tc
}

// Form builds the huh form bound to s.
func (s *State) Form() *huh.Form {
	sizes := make([]huh.Option[int], len(view.PageSizes))
	for i, n := range view.PageSizes {
		sizes[i] = huh.NewOption(strconv.Itoa(n), n)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(titleStyle.Render("tareas setup")).
				Description(subtitleStyle.Render("Connect the client to a task API and pick defaults.")),
			huh.NewInput().
				Title("API URL").
				Description("Root of the task API; tasks live under <url>/tasks.").
				Value(&s.APIURL).
				Validate(ValidateURL),
			huh.NewInput().
				Title("Bearer token").
				Description("Leave empty when the server runs without --jwt-secret.").
				EchoMode(huh.EchoModePassword).
				Value(&s.Token),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Default page size").
				Options(sizes...).
				Value(&s.PageSize),
			huh.NewInput().
				Title("List timeout (seconds)").
				Value(&s.ListTimeout).
				Validate(ValidateTimeout),
			huh.NewInput().
				Title("Mutation timeout (seconds)").
				Value(&s.MutationTimeout).
				Validate(ValidateTimeout),
			huh.NewConfirm().
				Title("Send crash reports?").
				Affirmative("Yes").
				Negative("No").
				Value(&s.Telemetry),
		),
	).WithTheme(huh.ThemeCharm())
}

// Run shows the wizard pre-populated from existing.
func Run(existing *config.TOMLConfig) (*State, error) {
	s := FromTOML(existing)
	if err := s.Form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrCancelled
		}
		return nil, err
	}
	return s, nil
}
