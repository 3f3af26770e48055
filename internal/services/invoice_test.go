package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/pdf"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNumbererEmptyLedger(t *testing.T) {
	e := newEnv(t)

	next, err := e.numberer.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1/2025", next)

	// previewing twice reserves nothing
	next, err = e.numberer.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1/2025", next)
}

func TestNumbererFollowsLastInvoice(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Create(&models.Invoice{Number: "41/2024", Date: fixedT}).Error)

	next, err := e.numberer.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42/2025", next)

	var got string
	require.NoError(t, e.db.Transaction(func(tx *gorm.DB) error {
		got, err = e.numberer.Allocate(tx)
		return err
	}))
	assert.Equal(t, "42/2025", got)

	// the counter moved even though no invoice was saved with 42
	next, err = e.numberer.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "43/2025", next)
}

func TestGenerateCreatesInvoice(t *testing.T) {
	e := newEnv(t)
	p := e.partner(t, "AXA ASSISTANCE")
	it := e.intervention(t, models.Intervention{
		PartnerID: &p.ID, Reference: "R-100", Date: day(2025, 2, 14), Event: models.EventAccident,
		Plate: "1234-A-5", Brand: "Dacia", Location: "Agadir", Destination: "Tiznit", GrossCost: dec("1200"),
	})

	inv, doc, err := e.invoices.Generate(ctx, it.ID, GenerateInput{}, admin)
	require.NoError(t, err)
	assert.Equal(t, "1/2025", inv.Number)
	assert.True(t, inv.NetAmount.Equal(dec("1000")), "net = %s", inv.NetAmount)
	assert.True(t, inv.TaxAmount.Equal(dec("200")), "tax = %s", inv.TaxAmount)
	assert.Equal(t, "AXA ASSISTANCE", inv.BillingName)
	assert.Equal(t, "001234", inv.BillingTaxID)
	assert.Equal(t, models.DefaultPerimeter, inv.Perimeter)
	assert.Equal(t, "R-100", inv.Reference)
	assert.Contains(t, inv.Description, "Accident")
	assert.Equal(t, InvoicePrefix+"facture_1_2025.pdf", inv.PDFPath)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "not a PDF")

	stored, err := e.invoices.Download(ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, doc, stored)

	l := e.lastLog(t, "invoice")
	assert.Equal(t, "Génération et Enregistrement Facture", l.Action)
	assert.Equal(t, models.SeverityMedium, l.Severity)
}

func TestGenerateTwiceKeepsNumber(t *testing.T) {
	e := newEnv(t)
	p := e.partner(t, "WAFA IMA")
	it := e.intervention(t, models.Intervention{PartnerID: &p.ID, GrossCost: dec("600")})

	first, _, err := e.invoices.Generate(ctx, it.ID, GenerateInput{}, admin)
	require.NoError(t, err)

	other := "Client Direct"
	gross := dec("720")
	second, _, err := e.invoices.Generate(ctx, it.ID, GenerateInput{Date: "05/03/2025", BillingName: &other, GrossAmount: &gross}, admin)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, "Client Direct", second.BillingName)
	assert.Equal(t, "2025-03-05", second.Date.Format("2006-01-02"))
	assert.True(t, second.TaxAmount.Equal(dec("120")))

	var n int64
	require.NoError(t, e.db.Model(&models.Invoice{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestGenerateConcurrentNumbersAreDistinct(t *testing.T) {
	e := newEnv(t)
	a := e.intervention(t, models.Intervention{Reference: "A", GrossCost: dec("100")})
	b := e.intervention(t, models.Intervention{Reference: "B", GrossCost: dec("200")})

	var (
		wg      sync.WaitGroup
		numbers [2]string
		errs    [2]error
	)
	for i, id := range []uint{a.ID, b.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, _, err := e.invoices.Generate(ctx, id, GenerateInput{}, admin)
			errs[i] = err
			if err == nil {
				numbers[i] = inv.Number
			}
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, numbers[0], numbers[1])
	assert.ElementsMatch(t, []string{"1/2025", "2/2025"}, numbers[:])
}

func TestGenerateRejections(t *testing.T) {
	e := newEnv(t)
	it := e.intervention(t, models.Intervention{GrossCost: dec("100")})

	_, _, err := e.invoices.Generate(ctx, 999, GenerateInput{}, admin)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "err = %v", err)

	_, _, err = e.invoices.Generate(ctx, it.ID, GenerateInput{Date: "not a date"}, admin)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)

	neg := dec("-5")
	_, _, err = e.invoices.Generate(ctx, it.ID, GenerateInput{GrossAmount: &neg}, admin)
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount), "err = %v", err)

	// nothing was allocated by the failed attempts
	next, err := e.numberer.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1/2025", next)
}

func TestDownloadWithoutPDF(t *testing.T) {
	e := newEnv(t)
	inv := &models.Invoice{GrossAmount: dec("120")}
	require.NoError(t, e.invoices.Create(ctx, inv, admin))

	_, err := e.invoices.Download(ctx, inv)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "err = %v", err)

	inv.PDFPath = InvoicePrefix + "missing.pdf"
	_, err = e.invoices.Download(ctx, inv)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "err = %v", err)
}

func TestInvoiceCreateDerivesAmounts(t *testing.T) {
	e := newEnv(t)
	inv := &models.Invoice{GrossAmount: dec("120"), BillingName: "Client"}
	require.NoError(t, e.invoices.Create(ctx, inv, admin))

	assert.Equal(t, "1/2025", inv.Number)
	assert.True(t, inv.NetAmount.Equal(dec("100")))
	assert.True(t, inv.TaxAmount.Equal(dec("20")))
	assert.Equal(t, "2025-03-01", inv.Date.Format("2006-01-02"))
	assert.Equal(t, models.SeverityMedium, e.lastLog(t, "invoice").Severity)
}

func TestInvoiceCreateRejectsMismatch(t *testing.T) {
	e := newEnv(t)
	inv := &models.Invoice{NetAmount: dec("100"), TaxAmount: dec("10"), GrossAmount: dec("120")}
	err := e.invoices.Create(ctx, inv, admin)
	assert.True(t, apperr.Is(err, apperr.KindAmountMismatch), "err = %v", err)

	var n int64
	require.NoError(t, e.db.Model(&models.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInvoiceUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	it := e.intervention(t, models.Intervention{GrossCost: dec("240")})
	inv, _, err := e.invoices.Generate(ctx, it.ID, GenerateInput{}, admin)
	require.NoError(t, err)
	require.True(t, e.store.Exists(ctx, inv.PDFPath))

	in := *inv
	in.Description = "Remorquage vers garage"
	require.NoError(t, e.invoices.Update(ctx, inv, in, admin))
	got, err := e.invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Remorquage vers garage", got.Description)
	assert.Equal(t, inv.PDFPath, got.PDFPath)

	require.NoError(t, e.invoices.Delete(ctx, got, admin))
	assert.False(t, e.store.Exists(ctx, got.PDFPath))
	_, err = e.invoices.Get(ctx, got.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, models.SeverityHigh, e.lastLog(t, "invoice").Severity)
}

func TestInvoiceListScopedToOwner(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "agent@example.com")
	agent := agentOf(u)
	require.NoError(t, e.invoices.Create(ctx, &models.Invoice{GrossAmount: dec("12")}, agent))
	require.NoError(t, e.invoices.Create(ctx, &models.Invoice{GrossAmount: dec("24")}, admin))

	page, err := e.invoices.List(ctx, agent, ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, u.ID, *page.Items[0].UserID)

	page, err = e.invoices.List(ctx, admin, ListQuery{Search: "2/2025"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

// brokenDisk writes the artifact and then reports a failure, like a device
// that fills up while flushing.
type brokenDisk struct{ *storage.LocalStorage }

func (b brokenDisk) Put(ctx context.Context, key string, data []byte) error {
	_ = b.LocalStorage.Put(ctx, key, data)
	return errors.New("no space left on device")
}

func TestGenerateFailureLeavesNoPDF(t *testing.T) {
	e := newEnv(t)
	svc := NewInvoiceService(e.db, e.numberer, e.company, pdf.NewRenderer(), brokenDisk{e.store}, e.rec, nil, nil)
	it := e.intervention(t, models.Intervention{GrossCost: dec("120")})

	_, _, err := svc.Generate(ctx, it.ID, GenerateInput{}, admin)
	assert.True(t, apperr.Is(err, apperr.KindUnexpected), "err = %v", err)
	assert.False(t, e.store.Exists(ctx, InvoicePrefix+"facture_1_2025.pdf"))

	var n int64
	require.NoError(t, e.db.Model(&models.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInvoiceNumberFormat(t *testing.T) {
	e := newEnv(t)

	err := e.invoices.Create(ctx, &models.Invoice{Number: "hello world", GrossAmount: dec("12")}, admin)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)

	inv := &models.Invoice{Number: " 7/2024 ", GrossAmount: dec("12")}
	require.NoError(t, e.invoices.Create(ctx, inv, admin))
	assert.Equal(t, "7/2024", inv.Number)

	in := *inv
	in.Number = "7-2024"
	err = e.invoices.Update(ctx, inv, in, admin)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)
}

func TestInvoiceRenumberMovesPDF(t *testing.T) {
	e := newEnv(t)
	it := e.intervention(t, models.Intervention{GrossCost: dec("240")})
	inv, _, err := e.invoices.Generate(ctx, it.ID, GenerateInput{}, admin)
	require.NoError(t, err)
	oldPath := inv.PDFPath

	in := *inv
	in.Number = "999/2020"
	require.NoError(t, e.invoices.Update(ctx, inv, in, admin))

	got, err := e.invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "999/2020", got.Number)
	assert.Equal(t, InvoicePrefix+"facture_999_2020.pdf", got.PDFPath)
	assert.True(t, e.store.Exists(ctx, got.PDFPath))
	assert.False(t, e.store.Exists(ctx, oldPath))

	doc, err := e.invoices.Download(ctx, got)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "not a PDF")
}
