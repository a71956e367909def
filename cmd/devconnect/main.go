package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"devconnect/internal/alerts"
	"devconnect/internal/api"
	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/jobs"
	"devconnect/internal/posts"
	"devconnect/internal/profile"
	"devconnect/internal/session"
	"devconnect/internal/utils"
)

const usage = `usage: devconnect <command> [flags]

commands:
  register  -name NAME -email EMAIL -password PASS
  login     -email EMAIL -password PASS
  logout
  me
  profiles
  profile   -id ID
  jobs      [-limit N]
  feed
  post      -text TEXT
`

// app bundles the wired stores for the subcommand handlers.
type app struct {
	session *session.Store
	profile *profile.Store
	jobs    *jobs.Store
	posts   *posts.Store
	alerts  *alerts.Queue
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open local database: %v", err)
	}
	defer db.Close()

	creds := database.NewCredentialRepository(db)
	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, cfg.MaxConcurrentRequests, creds, logger)
	queue := alerts.NewQueueWithTimeout(cfg.AlertTimeout)
	defer queue.Stop()

	sess, err := session.NewStore(client, creds, queue, logger)
	if err != nil {
		log.Fatalf("failed to initialize session: %v", err)
	}

	confirm := profile.ConfirmFunc(promptConfirm)
	profiles := profile.NewStore(client, sess, queue, confirm, logger)
	sess.OnReset(profiles.Clear)

	a := &app{
		session: sess,
		profile: profiles,
		jobs:    jobs.NewStore(client, creds, sess, logger),
		posts:   posts.NewStore(client, sess, queue, posts.ConfirmFunc(promptConfirm), logger),
		alerts:  queue,
	}

	ctx, cancel := utils.WithShutdown(context.Background())
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		a.drainAlerts()
		log.Fatalf("%s: %v", os.Args[1], err)
	}
	a.drainAlerts()
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		user, err := a.session.Register(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("registered as %s <%s>\n", user.Name, user.Email)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		user, err := a.session.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.Name)
		return nil

	case "logout":
		a.session.Logout()
		fmt.Println("logged out")
		return nil

	case "me":
		user, err := a.session.LoadUser(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		if p, err := a.profile.CurrentProfile(ctx); err == nil && p != nil {
			fmt.Printf("  %s — skills: %s\n", p.Status, profile.JoinSkills(p.Skills))
		}
		return nil

	case "profiles":
		list, err := a.profile.Profiles(ctx)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Printf("%s  %s (%s)\n", p.User.ID, p.User.Name, p.Status)
		}
		return nil

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ExitOnError)
		id := fs.String("id", "", "profile id")
		fs.Parse(args)
		p, err := a.profile.ProfileByID(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Printf("%s — %s\n", p.User.Name, p.Status)
		for _, exp := range p.Experiences {
			fmt.Printf("  %s at %s (%s - %s)\n", exp.Title, exp.Company, exp.StartDate, orCurrent(exp.EndDate))
		}
		for _, edu := range p.Educations {
			fmt.Printf("  %s, %s (%s - %s)\n", edu.Degree, edu.School, edu.StartDate, orCurrent(edu.EndDate))
		}
		return nil

	case "jobs":
		fs := flag.NewFlagSet("jobs", flag.ExitOnError)
		limit := fs.Int("limit", 0, "fetch only the N most recent jobs")
		fs.Parse(args)
		list, err := a.jobs.Fetch(ctx, *limit)
		if err != nil {
			return err
		}
		for _, job := range list {
			fmt.Printf("%s  %s — %s, %s (%s)\n", job.ID, job.Title, job.Company.Name, job.Location, job.Salary)
		}
		return nil

	case "feed":
		list, err := a.posts.Posts(ctx)
		if err != nil {
			return err
		}
		for _, post := range list {
			fmt.Printf("[%s] %s: %s (%d likes, %d comments)\n",
				utils.FormatDate(post.Date), post.User.Name, post.Text, len(post.Likes), len(post.Comments))
		}
		return nil

	case "post":
		fs := flag.NewFlagSet("post", flag.ExitOnError)
		text := fs.String("text", "", "post text")
		fs.Parse(args)
		if _, err := a.session.LoadUser(ctx); err != nil && !errors.Is(err, session.ErrMissingCredentials) {
			return err
		}
		created, err := a.posts.Create(ctx, *text)
		if err != nil {
			return err
		}
		fmt.Printf("posted %s\n", created.ID)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// drainAlerts prints queued notifications so CLI runs still surface
// what a view layer would have rendered.
func (a *app) drainAlerts() {
	for _, alert := range a.alerts.Active() {
		utils.PrintErr(fmt.Sprintf("[%s] %s", alert.Severity, alert.Message))
	}
}

func orCurrent(endDate string) string {
	if endDate == "" {
		return "current"
	}
	return endDate
}

func promptConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
