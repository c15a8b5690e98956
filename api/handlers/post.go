package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// Post exported for testing purposes
type Post struct {
	DB       databases.PostDatabase
	LDB      databases.LikeDatabase
	CDB      databases.CommentDatabase
	MDB      databases.MemberDatabase
	ClubDB   databases.ClubDatabase
	Notifier Notification
	Hub      *Hub
}

// requireClubAccess checks that userID may read content in the club.
// Public clubs are open to everyone; private clubs require a membership
// document to exist before any post is served.
func (p Post) requireClubAccess(ctx context.Context, clubID, userID string) (int, error) {
	cID, err := primitive.ObjectIDFromHex(clubID)
	if err != nil {
		return http.StatusBadRequest, err
	}

	club, err := p.ClubDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		return http.StatusNotFound, err
	}
	if club.Privacy != models.ClubPrivacyPrivate {
		return http.StatusOK, nil
	}

	if userID == "" {
		return http.StatusForbidden, fmt.Errorf("club %s is private", clubID)
	}
	_, err = p.MDB.FindOne(ctx, bson.M{"clubId": clubID, "userId": userID})
	if err != nil {
		return http.StatusForbidden, fmt.Errorf("user %s is not a member of private club %s", userID, clubID)
	}
	return http.StatusOK, nil
}

// ClubPostsHandler returns the posts of a club, newest first. Private
// clubs only serve posts to members.
func (p Post) ClubPostsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	if status, err := p.requireClubAccess(context.Background(), clubID, userID); err != nil {
		if status == http.StatusForbidden {
			config.ErrorStatus("private club", status, w, err)
			return
		}
		config.ErrorStatus("failed to get club", status, w, err)
		return
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	posts, err := p.DB.Find(context.Background(), bson.M{"clubId": clubID}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch club posts", http.StatusInternalServerError, w, err)
		return
	}
	if posts == nil {
		posts = []models.ClubPost{}
	}

	b, err := json.Marshal(posts)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreatePostHandler creates a post in a club, members only
func (p Post) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID := vars["club_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	_, err := p.MDB.FindOne(context.Background(), bson.M{"clubId": clubID, "userId": userID})
	if err != nil {
		config.ErrorStatus("only club members can post", http.StatusForbidden, w, err)
		return
	}

	var post models.ClubPost
	err = json.NewDecoder(r.Body).Decode(&post)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if post.Body == "" && post.ImageURL == "" {
		config.ErrorStatus("post body or image is required", http.StatusBadRequest, w, fmt.Errorf("empty post"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	post.ID = primitive.NewObjectID()
	post.ClubID = clubID
	post.AuthorID = userID
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err = p.DB.InsertOne(context.Background(), post)
	if err != nil {
		config.ErrorStatus("failed to create post", http.StatusInternalServerError, w, err)
		return
	}

	if p.Hub != nil {
		p.Hub.Publish(TopicClubPosts(clubID), "post_created", post)
	}

	responseBody, err := json.Marshal(post)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// DeletePostHandler deletes a post along with its likes and comments.
// Allowed for the author and the club owner.
func (p Post) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID := vars["post_id"]
	userID := requesterID(r)

	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	post, err := p.DB.FindOne(context.Background(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get post", http.StatusNotFound, w, err)
		return
	}

	if post.AuthorID != userID {
		cID, err := primitive.ObjectIDFromHex(post.ClubID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		club, err := p.ClubDB.FindOne(context.Background(), bson.M{"_id": cID})
		if err != nil || club.OwnerID != userID {
			config.ErrorStatus("only the author or club owner can delete a post", http.StatusForbidden, w, fmt.Errorf("user %s cannot delete post %s", userID, postID))
			return
		}
	}

	_, err = p.DB.DeleteOne(context.Background(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to delete post", http.StatusInternalServerError, w, err)
		return
	}

	if _, err := p.LDB.DeleteMany(context.Background(), bson.M{"postId": postID}); err != nil {
		zap.S().Errorf("failed to delete likes for post %s: %v", postID, err)
	}
	if _, err := p.CDB.DeleteMany(context.Background(), bson.M{"postId": postID}); err != nil {
		zap.S().Errorf("failed to delete comments for post %s: %v", postID, err)
	}

	if p.Hub != nil {
		p.Hub.Publish(TopicClubPosts(post.ClubID), "post_deleted", map[string]string{"postId": postID})
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "post deleted successfully"}`))
}

// ToggleLikeHandler likes a post, or removes the like if one already
// exists for the (post, user) pair
func (p Post) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID := vars["post_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	post, err := p.DB.FindOne(context.Background(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get post", http.StatusNotFound, w, err)
		return
	}

	liked := false
	existing, err := p.LDB.FindOne(context.Background(), bson.M{"postId": postID, "userId": userID})
	if err == nil && existing != nil {
		_, err = p.LDB.DeleteOne(context.Background(), bson.M{"postId": postID, "userId": userID})
		if err != nil {
			config.ErrorStatus("failed to remove like", http.StatusInternalServerError, w, err)
			return
		}
	} else {
		like := models.PostLike{
			ID:        primitive.NewObjectID(),
			PostID:    postID,
			ClubID:    post.ClubID,
			UserID:    userID,
			CreatedAt: primitive.NewDateTimeFromTime(time.Now().UTC()),
		}
		_, err = p.LDB.InsertOne(context.Background(), like)
		if err != nil {
			config.ErrorStatus("failed to create like", http.StatusInternalServerError, w, err)
			return
		}
		liked = true
	}

	count, err := p.LDB.CountDocuments(context.Background(), bson.M{"postId": postID})
	if err != nil {
		config.ErrorStatus("failed to count likes", http.StatusInternalServerError, w, err)
		return
	}

	if p.Hub != nil {
		p.Hub.Publish(TopicPostLikes(postID), "like_count", map[string]interface{}{
			"postId": postID,
			"count":  count,
			"userId": userID,
			"liked":  liked,
		})
	}

	// Notify the author on a fresh like, never on an unlike or a self-like
	if liked && post.AuthorID != userID {
		liker, err := p.Notifier.UDB.FindOne(context.Background(), bson.M{"_id": userID})
		likerName := "Someone"
		if err == nil {
			likerName = liker.Details.Name
		}
		notifErr := p.Notifier.Dispatch(context.Background(), models.Notification{
			UserID:     post.AuthorID,
			FromUserID: userID,
			Type:       models.NotificationTypeLike,
			Message:    fmt.Sprintf("%s liked your post", likerName),
			ClubID:     post.ClubID,
			PostID:     postID,
		})
		if notifErr != nil {
			zap.S().Errorf("failed to dispatch like notification: %v", notifErr)
		}
	}

	body := fmt.Sprintf(`{"liked": %t, "count": %d}`, liked, count)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// PostLikesHandler returns the likes for a post and their count
func (p Post) PostLikesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID := vars["post_id"]

	likes, err := p.LDB.Find(context.Background(), bson.M{"postId": postID})
	if err != nil {
		config.ErrorStatus("failed to fetch likes", http.StatusInternalServerError, w, err)
		return
	}
	if likes == nil {
		likes = []models.PostLike{}
	}

	responseBody, err := json.Marshal(map[string]interface{}{
		"count": len(likes),
		"likes": likes,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// AddCommentHandler adds a comment to a post
func (p Post) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID := vars["post_id"]
	userID := requesterID(r)

	if userID == "" {
		config.ErrorStatus("X-User-ID header is required", http.StatusUnauthorized, w, fmt.Errorf("missing X-User-ID header"))
		return
	}

	pID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	post, err := p.DB.FindOne(context.Background(), bson.M{"_id": pID})
	if err != nil {
		config.ErrorStatus("failed to get post", http.StatusNotFound, w, err)
		return
	}

	var comment models.PostComment
	err = json.NewDecoder(r.Body).Decode(&comment)
	if err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if comment.Body == "" {
		config.ErrorStatus("comment body is required", http.StatusBadRequest, w, fmt.Errorf("empty comment"))
		return
	}

	comment.ID = primitive.NewObjectID()
	comment.PostID = postID
	comment.ClubID = post.ClubID
	comment.AuthorID = userID
	comment.CreatedAt = primitive.NewDateTimeFromTime(time.Now().UTC())

	_, err = p.CDB.InsertOne(context.Background(), comment)
	if err != nil {
		config.ErrorStatus("failed to create comment", http.StatusInternalServerError, w, err)
		return
	}

	if p.Hub != nil {
		p.Hub.Publish(TopicPostComments(postID), "comment_created", comment)
	}

	if post.AuthorID != userID {
		commenter, err := p.Notifier.UDB.FindOne(context.Background(), bson.M{"_id": userID})
		commenterName := "Someone"
		if err == nil {
			commenterName = commenter.Details.Name
		}
		notifErr := p.Notifier.Dispatch(context.Background(), models.Notification{
			UserID:      post.AuthorID,
			FromUserID:  userID,
			Type:        models.NotificationTypeComment,
			Message:     fmt.Sprintf("%s commented on your post", commenterName),
			ClubID:      post.ClubID,
			PostID:      postID,
			CommentText: comment.Body,
		})
		if notifErr != nil {
			zap.S().Errorf("failed to dispatch comment notification: %v", notifErr)
		}
	}

	responseBody, err := json.Marshal(comment)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(responseBody)
}

// PostCommentsHandler returns the comments on a post, oldest first,
// with author details attached
func (p Post) PostCommentsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID := vars["post_id"]

	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	comments, err := p.CDB.Find(context.Background(), bson.M{"postId": postID}, opts)
	if err != nil {
		config.ErrorStatus("failed to fetch comments", http.StatusInternalServerError, w, err)
		return
	}

	detailedComments := []map[string]interface{}{}
	for _, comment := range comments {
		detailed := map[string]interface{}{
			"commentId": comment.ID,
			"postId":    comment.PostID,
			"authorId":  comment.AuthorID,
			"body":      comment.Body,
			"createdAt": comment.CreatedAt,
		}
		author, err := p.Notifier.UDB.FindOne(context.Background(), bson.M{"_id": comment.AuthorID})
		if err == nil {
			detailed["authorName"] = author.Details.Name
			detailed["authorUsername"] = author.Details.Username
			detailed["authorProfilePicture"] = author.Details.ProfilePicture
		}
		detailedComments = append(detailedComments, detailed)
	}

	responseBody, err := json.Marshal(detailedComments)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseBody)
}

// DeleteCommentHandler deletes a comment, author only
func (p Post) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	commentID := vars["comment_id"]
	userID := requesterID(r)

	cID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	comment, err := p.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get comment", http.StatusNotFound, w, err)
		return
	}
	if comment.AuthorID != userID {
		config.ErrorStatus("only the author can delete a comment", http.StatusForbidden, w, fmt.Errorf("user %s cannot delete comment %s", userID, commentID))
		return
	}

	_, err = p.CDB.DeleteOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to delete comment", http.StatusInternalServerError, w, err)
		return
	}

	if p.Hub != nil {
		p.Hub.Publish(TopicPostComments(comment.PostID), "comment_deleted", map[string]string{"commentId": commentID})
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "comment deleted successfully"}`))
}
