package events

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"eventra/access"
	"eventra/db"
	"eventra/models"
	"eventra/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

var bannerUploadPath = "./static/eventpic"

// UploadBanner handles POST /api/events/:eventid/banner (multipart field
// "banner"). Saves the original as JPEG plus a 300px-wide thumbnail.
func UploadBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !req.Actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var event models.Event
	if err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	file, _, err := r.FormFile("banner")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing banner file")
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid image")
		return
	}

	if err := os.MkdirAll(filepath.Join(bannerUploadPath, "thumb"), 0755); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating directory for banner")
		return
	}

	fileName := eventID + ".jpg"
	if err := imaging.Save(img, filepath.Join(bannerUploadPath, fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error saving banner")
		return
	}

	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(bannerUploadPath, "thumb", fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error saving thumbnail")
		return
	}

	banner := "/eventpic/" + fileName
	if _, err := db.EventsCollection.UpdateOne(ctx,
		bson.M{"eventid": eventID},
		bson.M{"$set": bson.M{"banner": banner, "updatedAt": time.Now().UTC()}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"banner": banner})
}
