package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/authz"
	"github.com/pulseapp/pulse-server/internal/middleware"
	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/internal/repositories"
	"github.com/pulseapp/pulse-server/pkg/storage"
	"github.com/pulseapp/pulse-server/validators"
	"go.uber.org/zap"
)

// PostHandler handles post detail, create and edit requests.
type PostHandler struct {
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	images            *storage.ImageStore
	logger            *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	images *storage.ImageStore,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		images:            images,
		logger:            logger,
	}
}

// PostDetail serves one post with its comments, newest first, and the
// empty comment form.
func (h *PostHandler) PostDetail(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}

	comments, err := h.commentRepository.ListCommentsByPost(post.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorPosts, err := h.postRepository.CountPostsByAuthor(post.AuthorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return renderPage(c, pageEnvelope("posts/post_detail", echo.Map{
		"post":               post,
		"comments":           comments,
		"author_posts_count": authorPosts,
		"form":               models.CommentForm{},
	}, nil))
}

// CreatePost renders the post form on GET and creates the post on POST.
// Validation failures re-render the form with field errors and write
// nothing. On success the author is redirected to their profile feed.
func (h *PostHandler) CreatePost(c echo.Context) error {
	viewer := middleware.Viewer(c)

	if c.Request().Method == http.MethodGet {
		return renderPage(c, pageEnvelope("posts/create_post", echo.Map{
			"form":    models.PostForm{},
			"is_edit": false,
		}, nil))
	}

	form, groupID, fieldErrors, err := h.bindPostForm(c)
	if err != nil {
		return err
	}
	if len(fieldErrors) > 0 {
		return renderPage(c, echo.Map{
			"success":  false,
			"template": "posts/create_post",
			"data":     echo.Map{"form": form, "is_edit": false},
			"errors":   fieldErrors,
		})
	}

	image, err := h.saveImage(c)
	if err != nil {
		return err
	}

	post := &models.Post{
		Text:     form.Text,
		AuthorID: viewer.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := h.postRepository.CreatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("author_id", viewer.ID))

	return c.Redirect(http.StatusFound, profileURL(viewer.Username))
}

// EditPost updates a post's text, group and image in place. Only the
// author may edit; anyone else is redirected to the post detail view
// without an error and without a write.
func (h *PostHandler) EditPost(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}

	viewer := middleware.Viewer(c)
	if !authz.CanEdit(viewer, post) {
		return c.Redirect(http.StatusFound, postDetailURL(post.ID))
	}

	if c.Request().Method == http.MethodGet {
		form := models.PostForm{Text: post.Text}
		if post.GroupID != nil {
			form.Group = *post.GroupID
		}
		return renderPage(c, pageEnvelope("posts/create_post", echo.Map{
			"form":    form,
			"post":    post,
			"is_edit": true,
		}, nil))
	}

	form, groupID, fieldErrors, err := h.bindPostForm(c)
	if err != nil {
		return err
	}
	if len(fieldErrors) > 0 {
		return renderPage(c, echo.Map{
			"success":  false,
			"template": "posts/create_post",
			"data":     echo.Map{"form": form, "post": post, "is_edit": true},
			"errors":   fieldErrors,
		})
	}

	image, err := h.saveImage(c)
	if err != nil {
		return err
	}

	post.Text = form.Text
	post.GroupID = groupID
	if image != "" {
		post.Image = image
	}
	if err := h.postRepository.UpdatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Redirect(http.StatusFound, postDetailURL(post.ID))
}

func (h *PostHandler) loadPost(c echo.Context) (*models.Post, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	post, err := h.postRepository.GetPostByID(uint(id))
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return post, nil
}

// bindPostForm binds and validates the create/edit form. The group field
// must reference an existing group when set; the resolved *uint is ready
// to assign to Post.GroupID.
func (h *PostHandler) bindPostForm(c echo.Context) (models.PostForm, *uint, validators.FieldErrors, error) {
	var form models.PostForm
	if err := c.Bind(&form); err != nil {
		return form, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	fieldErrors := validators.Fields(form)
	if fieldErrors == nil {
		fieldErrors = validators.FieldErrors{}
	}

	var groupID *uint
	if form.Group != 0 {
		group, err := h.groupRepository.GetGroupByID(form.Group)
		if err != nil {
			if err == repositories.ErrNotFound {
				fieldErrors["group"] = "Select a valid choice."
			} else {
				return form, nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		} else {
			groupID = &group.ID
		}
	}

	return form, groupID, fieldErrors, nil
}

// saveImage stores an optional multipart image and returns its relative
// path, or "" when the request carries no image.
func (h *PostHandler) saveImage(c echo.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	file, err := header.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid image upload")
	}
	defer file.Close()

	path, err := h.images.Save(file, header)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return path, nil
}
