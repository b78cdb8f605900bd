package main

import (
	"context"
	"fmt"

	"atfinder/internal/config"
	"atfinder/internal/db"
	"atfinder/internal/logger"
	"atfinder/internal/models"
	"atfinder/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type seedAnswer struct {
	fields store.AnswerFields
	verify bool
	votes  []string
}

type seedRequest struct {
	fields   store.RequestFields
	answers  []seedAnswer
	comments []store.CommentFields
	votes    []string
}

// 演示数据。全部走 store 的写路径，计数器天然对账。
var corpus = []seedRequest{
	{
		fields: store.RequestFields{
			Title:       "Who started this dance trend?",
			Description: "Saw this everywhere this week but every repost strips the credit. Original had a purple hoodie.",
			MediaURL:    "https://www.tiktok.com/@some_repost/video/7301882424",
			MediaType:   models.MediaVideo,
			Platform:    models.PlatformTikTok,
			SubmittedBy: "seed_mika",
		},
		answers: []seedAnswer{
			{
				fields: store.AnswerFields{
					CreatorHandle:   "@jalaiah_harmon",
					CreatorPlatform: models.PlatformTikTok,
					ProofURL:        "https://www.tiktok.com/@jalaiah_harmon/video/original",
					Explanation:     "Posted three weeks before any repost, choreography matches frame for frame.",
					SubmittedBy:     "seed_ana",
				},
				verify: true,
				votes:  []string{"seed_mika", "seed_leo", "seed_ana"},
			},
			{
				fields: store.AnswerFields{
					CreatorHandle:   "@dance.compilations",
					CreatorPlatform: models.PlatformTikTok,
					Explanation:     "Pretty sure this account had it first.",
					SubmittedBy:     "seed_leo",
				},
			},
		},
		comments: []store.CommentFields{
			{Content: "The reposts never credit anyone, thanks for tracking this down.", UserID: "seed_leo", UserHandle: "leo"},
		},
		votes: []string{"seed_ana", "seed_leo"},
	},
	{
		fields: store.RequestFields{
			Title:       "Source of this cat photo?",
			Description: "It keeps showing up as a meme template. Looking for the original photographer.",
			MediaURL:    "https://i.example.com/cat-stare.jpg",
			MediaType:   models.MediaImage,
			Platform:    models.PlatformTwitter,
			SubmittedBy: "seed_leo",
		},
		comments: []store.CommentFields{
			{Content: "Reverse image search points at a 2019 upload but the account is gone.", UserID: "seed_mika", UserHandle: "mika"},
		},
		votes: []string{"seed_mika"},
	},
	{
		fields: store.RequestFields{
			Title:       "Original artist behind this edit?",
			Description: "The audio is credited but the visuals are not.",
			MediaURL:    "https://www.instagram.com/p/repost123/",
			MediaType:   models.MediaVideo,
			Platform:    models.PlatformInstagram,
			SubmittedBy: "seed_ana",
		},
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, finding env vars from system")
	}
	logger.Configure(zerolog.InfoLevel)

	cfg := config.Load()
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	st := store.New(gdb)
	scope := models.Scope{TenantID: cfg.DefaultTenantID, ProjectID: cfg.DefaultProjectID}
	ctx := context.Background()

	for _, sr := range corpus {
		req, serr := st.CreateRequest(ctx, scope, sr.fields)
		if serr != nil {
			log.Fatal().Err(serr).Str("title", sr.fields.Title).Msg("seed request failed")
		}

		for _, voter := range sr.votes {
			if _, serr := st.CastVote(ctx, scope, models.TargetRequest, req.ID, voter, 1); serr != nil {
				log.Fatal().Err(serr).Msg("seed vote failed")
			}
		}
		for _, cf := range sr.comments {
			if _, serr := st.CreateComment(ctx, scope, models.TargetRequest, req.ID, cf); serr != nil {
				log.Fatal().Err(serr).Msg("seed comment failed")
			}
		}

		for _, sa := range sr.answers {
			answer, serr := st.CreateAnswer(ctx, scope, req.ID, sa.fields)
			if serr != nil {
				log.Fatal().Err(serr).Msg("seed answer failed")
			}
			for _, voter := range sa.votes {
				if _, serr := st.CastVote(ctx, scope, models.TargetAnswer, answer.ID, voter, 1); serr != nil {
					log.Fatal().Err(serr).Msg("seed answer vote failed")
				}
			}
			if sa.verify {
				if _, serr := st.VerifyAnswer(ctx, scope, answer.ID, "seed_moderator"); serr != nil {
					log.Fatal().Err(serr).Msg("seed verify failed")
				}
			}
		}

		log.Info().Str("title", req.Title).Str("id", req.ID.String()).Msg("seeded request")
	}

	log.Info().Int("requests", len(corpus)).Msg("Seed completed")
}
