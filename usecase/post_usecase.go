package usecase

import (
	"context"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
)

type IPostUsecase interface {
	GetPost(ctx context.Context, tweetID string) (*model.Post, error)
	ListPosts(ctx context.Context, req dto.PostListRequest) (*dto.PostListResponse, error)
}

type postUsecase struct {
	posts repository.IPost
}

func NewPostUsecase(posts repository.IPost) IPostUsecase {
	return &postUsecase{posts: posts}
}

func (u *postUsecase) GetPost(ctx context.Context, tweetID string) (*model.Post, error) {
	return u.posts.GetByTweetID(ctx, tweetID)
}

func (u *postUsecase) ListPosts(ctx context.Context, req dto.PostListRequest) (*dto.PostListResponse, error) {
	req.Normalize()
	posts, total, err := u.posts.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return &dto.PostListResponse{Posts: posts, Pagination: dto.NewPagination(req.Page, req.Limit, total)}, nil
}
