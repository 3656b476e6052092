package dto

import "photogallery/internal/domain"

type UpdateMetadataRequest struct {
	Title       *string   `json:"title"`
	Caption     *string   `json:"caption"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Category    *string   `json:"category"`
}

func (r *UpdateMetadataRequest) ToUpdate() domain.MetadataUpdate {
	return domain.MetadataUpdate{
		Title:       r.Title,
		Caption:     r.Caption,
		Description: r.Description,
		Tags:        r.Tags,
		Category:    r.Category,
	}
}

type SetFlagRequest struct {
	Value bool `json:"value"`
}
