package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/offer-bot/internal/domain/offers"
)

const acceptancesExportLimit = 5000

// acceptancesXLSX журнал принятых оферт в Excel, даты в поясе loc
func acceptancesXLSX(list []offers.Acceptance, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"id",
		"workspace_id",
		"offer_id",
		"Плательщик",
		"ИНН",
		"КПП",
		"Принял (telegram id)",
		"Дата",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for i, a := range list {
		payer := "Физлицо"
		if a.PaymentType == "bill" {
			payer = "Юрлицо"
		}
		row := []interface{}{
			a.ID,
			a.WorkspaceID,
			a.OfferID,
			payer,
			a.INN,
			a.KPP,
			a.AcceptedBy,
			a.AcceptedAt.In(loc).Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// exportAcceptances выгрузка журнала для админ-чата
func (b *Bot) exportAcceptances(ctx context.Context, chatID int64) {
	list, err := b.acceptances.ListAcceptances(ctx, acceptancesExportLimit)
	if err != nil {
		b.log.Error("list acceptances failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка загрузки журнала оферт"))
		return
	}
	if len(list) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Принятых оферт пока нет."))
		return
	}
	data, err := acceptancesXLSX(list, b.loc)
	if err != nil {
		b.log.Error("build acceptances xlsx failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка формирования файла"))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("offer_acceptances_%s.xlsx", time.Now().In(b.loc).Format("20060102_150405")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Принятые оферты: %d", len(list))
	b.send(doc)
}
