// internal/handlers/quotation/list-capabilities/models.go
package listcapabilities

import "quotation-service/internal/models"

type Output = models.Capabilities

// LegacyOutput is the response of /herramientas-disponibles.
type LegacyOutput struct {
	HerramientaDisponible *string  `json:"herramienta_disponible"`
	PuedeGenerarPDF       bool     `json:"puede_generar_pdf"`
	FormatosSoportados    []string `json:"formatos_soportados"`
}

func toLegacy(out Output) LegacyOutput {
	formats := []string{"word"}
	if out.PortableSupported {
		formats = append(formats, "pdf")
	}
	return LegacyOutput{
		HerramientaDisponible: out.AvailableTool,
		PuedeGenerarPDF:       out.PortableSupported,
		FormatosSoportados:    formats,
	}
}
