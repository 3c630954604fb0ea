package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/classroomtt/tutor_marketplace/configs"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerateSettlementReceipt renders a PDF receipt for a settled
// session and stores its URL on the session. Best-effort: a receipt
// that fails to render or upload is logged and skipped, never undoing
// the settlement itself.
func GenerateSettlementReceipt(db *gorm.DB, sessionID uuid.UUID) {
	var session models.Session
	if err := db.Preload("Student").Preload("Tutor").Preload("Booking.Subject").
		First(&session, "id = ?", sessionID).Error; err != nil {
		log.Printf("🔥 Receipt: session %s not found: %v", sessionID, err)
		return
	}
	if !session.Settled() {
		log.Printf("Receipt skipped for session %s: not settled yet", sessionID)
		return
	}
	if session.ReceiptURL != nil {
		return
	}

	htmlData, err := generateReceiptHTML(&session)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF: %v", err)
		return
	}

	uploadURL, err := uploadReceiptToCloudinary(pdfBytes, session.ID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload receipt to Cloudinary: %v", err)
		return
	}

	if err := db.Model(&session).Update("receipt_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to store receipt URL for session %s: %v", session.ID, err)
		return
	}
	log.Printf("✅ Generated settlement receipt for session %s.", session.ID)
}

func generateReceiptHTML(session *models.Session) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	data := struct {
		Reference   string
		StudentName string
		TutorName   string
		SubjectName string
		SessionDate string
		Outcome     string
		ChargeTTD   string
		PlatformTTD string
		PayoutTTD   string
		SettledAt   string
	}{
		Reference:   session.Booking.Reference,
		StudentName: session.Student.FullName,
		TutorName:   session.Tutor.FullName,
		SubjectName: session.Booking.Subject.Name,
		SessionDate: session.ScheduledStartAt.Format("January 2, 2006 3:04 PM"),
		Outcome:     string(session.Status),
		ChargeTTD:   fmt.Sprintf("%.2f", session.ChargeAmountTTD),
		PlatformTTD: fmt.Sprintf("%.2f", session.PlatformFeeTTD),
		PayoutTTD:   fmt.Sprintf("%.2f", session.TutorPayoutTTD),
		SettledAt:   session.SettledAt.Format("January 2, 2006 3:04 PM"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceiptToCloudinary(fileBytes []byte, sessionID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s", sessionID),
		Folder:       "tutor_marketplace_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
