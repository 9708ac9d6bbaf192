package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doubtdesk/internal/model"
	"doubtdesk/internal/repository"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "doubtdesk"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	students := repository.NewStudentRepo(db)
	doubts := repository.NewDoubtRepo(db)

	aarav := &model.Student{
		Username:    "aarav",
		Class:       "10A",
		School:      "Springfield High",
		WeakSubject: "Physics",
		Preferences: model.Preferences{Style: "with real-world examples"},
	}
	meera := &model.Student{
		Username:    "meera",
		Class:       "10A",
		School:      "Springfield High",
		WeakSubject: "Maths",
		Preferences: model.Preferences{Style: "step by step"},
	}
	rohan := &model.Student{
		Username: "rohan",
		Class:    "10B",
		School:   "Springfield High",
	}

	for _, s := range []*model.Student{aarav, meera, rohan} {
		if err := students.Create(ctx, s); err != nil {
			log.Fatalf("Failed to seed student %s: %v", s.Username, err)
		}
		fmt.Printf("seeded student %s (%s) id=%s\n", s.Username, s.Class, s.ID)
	}

	seedDoubts := []*model.Doubt{
		{
			Title:    "Why does ice float on water?",
			Body:     "Solids are denser than liquids usually, so why not ice?",
			Subject:  "Physics",
			Topic:    "Density",
			AuthorID: aarav.ID,
			Class:    aarav.Class,
		},
		{
			Title:    "How do I factor quadratics quickly?",
			Body:     "I keep getting stuck on the middle term.",
			Subject:  "Maths",
			Topic:    "Algebra",
			AuthorID: meera.ID,
			Class:    meera.Class,
		},
	}

	for _, d := range seedDoubts {
		if err := doubts.Create(ctx, d); err != nil {
			log.Fatalf("Failed to seed doubt %q: %v", d.Title, err)
		}
		fmt.Printf("seeded doubt %q id=%s\n", d.Title, d.ID)
	}

	fmt.Println("done")
}
