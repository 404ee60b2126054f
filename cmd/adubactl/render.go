package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/yanqian/aduba/internal/domain/events"
	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/refresh"
)

func renderState(w io.Writer, s refresh.State) {
	fmt.Fprintln(w, strings.Repeat("-", 40))
	if s.Error != "" {
		fmt.Fprintf(w, "Erro: %s\n", s.Error)
	}
	if s.IsLoading {
		fmt.Fprintln(w, "Carregando...")
		return
	}
	if s.CurrentReading == nil {
		fmt.Fprintln(w, "Sem leituras")
		return
	}
	renderReading(w, *s.CurrentReading)
}

func renderReading(w io.Writer, r reading.Reading) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	device := r.DeviceID
	if r.Simulated() {
		device += " (simulado)"
	}
	fmt.Fprintf(tw, "Dispositivo\t%s\n", device)
	fmt.Fprintf(tw, "Umidade do Ar\t%d%%\n", r.Humidity)
	fmt.Fprintf(tw, "Temperatura\t%d°C\n", r.Temperature)
	fmt.Fprintf(tw, "Umidade do Solo\t%d%%\n", r.SoilHumidity)
	fmt.Fprintf(tw, "pH do Solo\t%.1f\n", r.PHLevel)
	fmt.Fprintf(tw, "Rotação Composteira\t%d%%\n", r.ComposterRotation)
	fmt.Fprintf(tw, "Rotação Reservatório\t%d%%\n", r.ReservoirRotation)
	fmt.Fprintf(tw, "Capacidade\t%s\n", r.CapacityStatus.Localized())
	if !r.RecordedAt.IsZero() {
		fmt.Fprintf(tw, "Registrado em\t%s\n", r.RecordedAt.Local().Format("02/01/2006 15:04:05"))
	}
	_ = tw.Flush()
}

func renderEvents(w io.Writer, list []events.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, "Nenhum evento")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATA\tTIPO\tDESCRIÇÃO")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.EventDate, e.EventType, e.Description)
	}
	_ = tw.Flush()
}
