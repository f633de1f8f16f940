package reddit

import "imagegrab/pkg/models"

// listingResponse is the Listing thing returned by subreddit endpoints.
type listingResponse struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string       `json:"after"`
	Before   string       `json:"before"`
	Children []listingKid `json:"children"`
}

type listingKid struct {
	Kind string             `json:"kind"`
	Data *models.RedditPost `json:"data"`
}

// Posts returns the posts of the page in listing order.
func (r *listingResponse) Posts() []*models.RedditPost {
	posts := make([]*models.RedditPost, 0, len(r.Data.Children))
	for _, c := range r.Data.Children {
		if c.Data != nil {
			posts = append(posts, c.Data)
		}
	}
	return posts
}
