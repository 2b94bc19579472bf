// Package main provides the webpilot CLI: a browser-session agent that
// drives a Chromium page toward a natural-language goal, asking the operator
// to approve risky actions along the way.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/agent/approval"
	appconfig "github.com/webpilot-ai/webpilot/pkg/config"
	pwexec "github.com/webpilot-ai/webpilot/pkg/executor/playwright"
	"github.com/webpilot-ai/webpilot/pkg/llm/factory"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

const version = "0.1.0"

// Config holds the application configuration assembled from flags and
// environment variables.
type Config struct {
	Goal        string
	StartURL    string
	Provider    string
	Model       string
	APIKey      string
	Region      string
	ConfigPath  string
	RiskProfile string
	MaxSteps    int
	Headless    bool
	AutoApprove bool
	Language    string
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("webpilot v%s\n", version)
		return
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// parseFlags parses command line flags and environment variables
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Goal, "goal", "", "Goal for the agent to pursue (required)")
	flag.StringVar(&config.StartURL, "url", "", "Starting URL (required)")
	flag.StringVar(&config.Provider, "provider", "", "LLM provider: openai, gemini, or bedrock (default from config)")
	flag.StringVar(&config.Model, "model", "", "Model identifier (default per provider)")
	flag.StringVar(&config.APIKey, "api-key", "", "API key (or set OPENAI_API_KEY / GEMINI_API_KEY)")
	flag.StringVar(&config.Region, "region", os.Getenv("AWS_REGION"), "AWS region for bedrock (or set AWS_REGION)")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to configuration file (default ~/.webpilot/config.json)")
	flag.StringVar(&config.RiskProfile, "risk-profile", "", "Path to a YAML risk profile overlay")
	flag.IntVar(&config.MaxSteps, "max-steps", 0, "Maximum steps per session (default from config)")
	flag.BoolVar(&config.Headless, "headless", true, "Run the browser headless")
	flag.BoolVar(&config.AutoApprove, "auto-approve", false, "Execute flagged actions without asking (unattended runs)")
	flag.StringVar(&config.Language, "language", "", "Response language for the final answer (default from config)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Webpilot - a browser-session agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webpilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY         OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY         Gemini API key\n")
		fmt.Fprintf(os.Stderr, "  AWS_ACCESS_KEY_ID      Bedrock access key\n")
		fmt.Fprintf(os.Stderr, "  AWS_SECRET_ACCESS_KEY  Bedrock secret key\n")
		fmt.Fprintf(os.Stderr, "  AWS_SESSION_TOKEN      Bedrock session token (optional)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  webpilot -goal \"find the pricing page\" -url https://example.com\n")
		fmt.Fprintf(os.Stderr, "  webpilot -provider gemini -goal \"...\" -url https://example.com\n")
		fmt.Fprintf(os.Stderr, "  webpilot -provider bedrock -region us-east-1 -goal \"...\" -url https://example.com\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	if c.Goal == "" {
		return fmt.Errorf("a goal is required (use -goal)")
	}
	if c.StartURL == "" {
		return fmt.Errorf("a starting URL is required (use -url)")
	}
	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	llmSection := appconfig.GetLLM()
	if config.Provider != "" {
		llmSection.Provider = config.Provider
	}
	if config.Model != "" {
		llmSection.Model = config.Model
	}
	if config.APIKey != "" {
		llmSection.APIKey = config.APIKey
	}
	if config.Region != "" {
		llmSection.Region = config.Region
	}
	if llmSection.Provider == appconfig.ProviderBedrock {
		if llmSection.AccessKeyID == "" {
			llmSection.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
		}
		if llmSection.SecretAccessKey == "" {
			llmSection.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		}
		if llmSection.SessionToken == "" {
			llmSection.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
		}
	}

	provider, err := factory.New(llmSection.Snapshot())
	if err != nil {
		return err
	}

	riskSection := appconfig.GetRisk()
	if config.RiskProfile != "" {
		if err := riskSection.LoadRiskProfile(config.RiskProfile); err != nil {
			return err
		}
	}
	risk := riskSection.Snapshot()

	scope, err := appconfig.NewScopeGuard(risk.AllowedDomains)
	if err != nil {
		return err
	}

	agentSection := appconfig.GetAgent().Snapshot()
	agentCfg := agent.Config{
		MaxSteps:        agentSection.MaxSteps,
		MaxStagnation:   agentSection.MaxStagnation,
		MaxScrollStall:  agentSection.MaxScrollStall,
		SettleDelay:     time.Duration(agentSection.SettleDelayMS) * time.Millisecond,
		ApprovalTimeout: time.Duration(agentSection.ApprovalTimeoutMS) * time.Millisecond,
		Language:        agentSection.ResponseLanguage,
		Temperature:     llmSection.Temperature,
		MaxOutputTokens: llmSection.MaxOutputTokens,
		AutoApprove:     config.AutoApprove,
	}
	if config.MaxSteps > 0 {
		agentCfg.MaxSteps = config.MaxSteps
	}
	if config.Language != "" {
		agentCfg.Language = config.Language
	}

	fmt.Println("Launching browser...")
	exec, err := pwexec.New(pwexec.WithHeadless(config.Headless))
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer exec.Close()

	if err := exec.Open(config.StartURL); err != nil {
		return err
	}

	// The notifier closes over the controller variable; it is only invoked
	// after Start, by which point the controller exists.
	var controller *agent.Controller
	controller = agent.NewController(provider, exec,
		agent.WithConfig(agentCfg),
		agent.WithGate(approval.NewGate(risk.Enabled, risk.Keywords)),
		agent.WithScopeGuard(scope),
		agent.WithChatLimit(agentSection.ChatLimit),
		agent.WithApprovalNotifier(func(req *types.Approval) {
			go promptApproval(controller, req)
		}),
	)

	session, err := controller.Start(ctx, config.Goal)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s started: %s\n", session.ID, session.Goal)

	controller.Wait()

	final := controller.Session()
	fmt.Printf("\nSession ended after %d step(s): %s\n", final.Step, final.StopCause)
	if final.FinalAnswer != "" {
		fmt.Printf("\n%s\n", final.FinalAnswer)
	}
	if final.StopCause != types.StopGoalComplete {
		return fmt.Errorf("session ended without completing the goal: %s", final.StopCause)
	}
	return nil
}

// promptApproval asks the operator to approve or reject a held action.
func promptApproval(controller *agent.Controller, req *types.Approval) {
	fmt.Printf("\nApproval required: %s\n", req.Description)
	if req.TargetSummary != "" {
		fmt.Printf("  target: %s\n", req.TargetSummary)
	}
	fmt.Printf("  reason: %s\n", req.Reason)
	fmt.Print("Approve? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		controller.ResolveApproval(req.ID, false)
		return
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	controller.ResolveApproval(req.ID, answer == "y" || answer == "yes")
}
