// Command main runs the demo data seeder for one Agora tenant.
package main

import (
	"context"
	"flag"
	"log"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/seed"
)

func main() {
	// Parse command line flags
	tenantKey := flag.String("tenant", "", "Tenant key to seed (required)")
	members := flag.Int("members", 20, "Number of members to create")
	staff := flag.Int("staff", 2, "Number of staff accounts to create (the first is an admin)")
	discussions := flag.Int("discussions", 30, "Number of discussions to create")
	maxReplies := flag.Int("max-replies", 8, "Maximum replies per discussion")
	days := flag.Int("days", 60, "Spread activity over this many past days")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one from the clock)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	if *tenantKey == "" {
		log.Fatal("-tenant is required")
	}

	log.Println("🌱 Forum Seeder")
	log.Println("===============")
	log.Printf("Target: tenant=%s members=%d staff=%d discussions=%d dry-run=%v\n",
		*tenantKey, *members, *staff, *discussions, *dryRun)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Tenants.Close() }()

	ctx := context.Background()
	tc, err := rt.Tenants.Get(ctx, *tenantKey)
	if err != nil {
		log.Fatalf("❌ Tenant %q unavailable: %v", *tenantKey, err)
	}

	res, err := seed.Forum(ctx, tc, rt.Central, rt.Directory, seed.Options{
		Members:     *members,
		Staff:       *staff,
		Discussions: *discussions,
		MaxReplies:  *maxReplies,
		MaxDays:     *days,
		Seed:        *seedValue,
		DryRun:      *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Done: %d members, %d staff, %d discussions, %d replies, %d likes\n",
		res.Members, res.Staff, res.Discussions, res.Replies, res.Likes)
}
