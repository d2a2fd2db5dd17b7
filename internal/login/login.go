// Package login drives the interactive credential bootstrap: it picks an
// auth method, obtains an API token (via a browser callback or a pasted
// value), validates it against the cloud endpoint, and persists the
// resulting context.
package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/sebasmos/bentoml-cli/internal/browser"
	"github.com/sebasmos/bentoml-cli/internal/callback"
	"github.com/sebasmos/bentoml-cli/internal/cloudapi"
	"github.com/sebasmos/bentoml-cli/internal/cloudconfig"
)

// DefaultEndpoint is the public BentoCloud endpoint used when none is given.
const DefaultEndpoint = "https://cloud.bentoml.com"

const (
	methodCreate = "create"
	methodPaste  = "paste"
)

var (
	successMark = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✔")
	failureMark = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✗")
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Validator checks a token against the cloud endpoint and resolves the
// identity behind it. *cloudapi.Client satisfies it.
type Validator interface {
	GetCurrentUser(ctx context.Context) (*cloudapi.User, error)
	GetCurrentOrganization(ctx context.Context) (*cloudapi.Organization, error)
}

// Listener is the ephemeral local endpoint that receives the browser
// redirect. *callback.Server satisfies it.
type Listener interface {
	CallbackURL() string
	WaitForCode(ctx context.Context) (string, error)
	Close()
}

// Options are the inputs to a login session.
type Options struct {
	Endpoint    string
	APIToken    string
	ContextName string
}

// Flow is a single login session with its collaborators injected. Only
// Store is required; nil fields fall back to the production implementations.
type Flow struct {
	Store       *cloudconfig.Store
	Prompter    Prompter
	NewClient   func(endpoint, apiToken string) Validator
	NewListener func() (Listener, error)
	OpenBrowser func(url string) error
	Out         io.Writer
}

// NewFlow wires a Flow with the terminal prompter, the real callback server,
// the real browser opener, and the cloud API client.
func NewFlow(store *cloudconfig.Store) *Flow {
	return &Flow{Store: store}
}

func (f *Flow) prompter() Prompter {
	if f.Prompter != nil {
		return f.Prompter
	}
	return NewPrompter()
}

func (f *Flow) newClient(endpoint, apiToken string) Validator {
	if f.NewClient != nil {
		return f.NewClient(endpoint, apiToken)
	}
	return cloudapi.NewClient(endpoint, apiToken)
}

func (f *Flow) newListener() (Listener, error) {
	if f.NewListener != nil {
		return f.NewListener()
	}
	return callback.NewServer()
}

func (f *Flow) openBrowser(url string) error {
	if f.OpenBrowser != nil {
		return f.OpenBrowser(url)
	}
	return browser.OpenURL(url)
}

func (f *Flow) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

// Run executes the login session. Every failure leaves the context store
// untouched; the callback listener and its port are released on all paths.
func (f *Flow) Run(ctx context.Context, opts Options) error {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	apiToken := opts.APIToken

	if apiToken == "" {
		choice, err := f.prompter().Select(
			"How would you like to authenticate the BentoML CLI?",
			[]Option{
				{Label: "Create a new API token with a web browser", Value: methodCreate},
				{Label: "Paste an existing API token", Value: methodPaste},
			},
		)
		if err != nil {
			return fmt.Errorf("failed to read auth method choice: %w", err)
		}

		switch choice {
		case methodCreate:
			apiToken, err = f.tokenFromBrowser(ctx, endpoint)
			if err != nil {
				fmt.Fprintf(f.out(), "%s Error acquiring token from web browser\n", failureMark)
				return err
			}
		case methodPaste:
			apiToken, err = f.prompter().SecretInput("Paste your authentication token")
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
		default:
			return fmt.Errorf("unknown auth method %q", choice)
		}
	}

	client := f.newClient(endpoint, apiToken)

	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		return validationError(endpoint, err)
	}
	if user == nil {
		return errors.New("current user is not found")
	}

	org, err := client.GetCurrentOrganization(ctx)
	if err != nil {
		return validationError(endpoint, err)
	}
	if org == nil {
		return errors.New("current organization is not found")
	}

	name := opts.ContextName
	if name == "" {
		name = cloudconfig.DefaultContextName
	}
	cloudCtx := cloudconfig.Context{
		Name:     name,
		Endpoint: endpoint,
		APIToken: apiToken,
		Email:    user.Email,
	}
	if err := f.Store.AddContext(cloudCtx); err != nil {
		return err
	}

	fmt.Fprintf(f.out(), "%s Configured BentoCloud credentials (current-context: %s)\n", successMark, cloudCtx.Name)
	fmt.Fprintf(f.out(), "%s Logged in as %s at %s\n", successMark, urlStyle.Render(user.Email), urlStyle.Render(endpoint))
	return nil
}

// tokenFromBrowser stands up the callback listener, sends the user to the
// token-creation page, and blocks until the page redirects back with a code.
func (f *Flow) tokenFromBrowser(ctx context.Context, endpoint string) (string, error) {
	listener, err := f.newListener()
	if err != nil {
		return "", fmt.Errorf("failed to start callback listener: %w", err)
	}
	defer listener.Close()

	baseURL := endpoint + "/api_tokens"
	authURL := fmt.Sprintf("%s?callback=%s", baseURL, url.QueryEscape(listener.CallbackURL()))

	// The confirmation is a pacing step; the answer itself is not load-bearing.
	if _, err := f.prompter().Confirm(fmt.Sprintf("Open %s in your browser?", authURL)); err != nil {
		return "", fmt.Errorf("failed to confirm browser open: %w", err)
	}

	if err := f.openBrowser(authURL); err != nil {
		log.WithError(err).Debug("browser open failed")
		fmt.Fprintf(f.out(), "%s Failed to open browser. Try creating a new API token at %s\n", failureMark, urlStyle.Render(baseURL))
	} else {
		fmt.Fprintf(f.out(), "%s Opened %s in your web browser\n", successMark, urlStyle.Render(authURL))
	}

	code, err := listener.WaitForCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed waiting for browser callback: %w", err)
	}
	if code == "" {
		return "", errors.New("no code could be obtained from browser callback page")
	}
	return code, nil
}

// validationError maps validator failures onto user-facing messages: 401 is
// a credential problem tied to the token page, everything else surfaces the
// raw status.
func validationError(endpoint string, err error) error {
	var apiErr *cloudapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("error validating token: HTTP 401: Bad credentials (%s/api-token)", endpoint)
		}
		return fmt.Errorf("error validating token: HTTP %d", apiErr.StatusCode)
	}
	return fmt.Errorf("error validating token: %w", err)
}
