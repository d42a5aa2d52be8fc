// Package veo implements the generation.VideoGenerator interface against the
// Veo video generation API (api.kie.ai). It handles the provider's response
// envelope, the tri-state success flag on status records, and the
// classification of rate-limit and not-ready responses.
package veo
