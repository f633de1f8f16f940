package imgur

import "imagegrab/pkg/models"

// envelope is the wrapper around every API response body.
type envelope[T any] struct {
	Data    T    `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

type albumResponse = envelope[*models.ImgurAlbum]

type imageResponse = envelope[*models.ImgurImage]

type countResponse = envelope[int]

type accountPageResponse = envelope[[]*models.ImgurImage]
