package collection

import "github.com/vedsharma/reqbook/internal/model"

// SeedHosts returns the dataset used when no snapshot has been saved yet
func SeedHosts() []model.Host {
	jokes := model.NewHost("icanhazdadjoke.com", "")
	jokes.Endpoints = append(jokes.Endpoints,
		model.NewEndpoint(model.MethodGet, "/", "Random Joke"),
		model.NewEndpoint(model.MethodGet, "/search", "Search for Joke"),
	)
	jokes.Endpoints[1].QueryItems = append(jokes.Endpoints[1].QueryItems,
		model.QueryItem{Name: "term", Value: "teacher"})

	return []model.Host{
		jokes,
		model.NewHost("apple.com", ""),
	}
}
