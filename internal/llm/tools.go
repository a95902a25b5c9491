package llm

var AdvisorTools = []Tool{
	{
		Name:        "calcular_rendimiento",
		Description: "Calcula el rendimiento de una inversión en CETES",
		Parameters: objReq(map[string]any{
			"monto": prop("number", "Monto a invertir"),
			"tasa":  prop("number", "Tasa de interés anual"),
			"plazo": prop("integer", "Plazo en días"),
		}, "monto", "tasa", "plazo"),
	},
	{
		Name:        "obtener_tasas_actuales",
		Description: "Devuelve la última tasa y el promedio histórico de cada plazo de CETES, más los últimos valores de Tasa Objetivo, Tasa FED, Tipo de Cambio Fix e INPC.",
		Parameters:  obj(nil),
	},
	{
		Name:        "obtener_pronostico",
		Description: "Devuelve el pronóstico semanal más reciente (valor, límite inferior y superior) para una serie de CETES.",
		Parameters: obj(map[string]any{
			"serie": prop("string", "Serie a consultar: CETE_28D, CETE_91D, CETE_182D o CETE_364D (por defecto CETE_28D)"),
		}),
	},
	{
		Name:        "obtener_fecha",
		Description: "Devuelve la fecha y hora actuales. Úsala antes de calcular plazos o fechas de vencimiento.",
		Parameters:  obj(nil),
	},
}

// Helper functions for building JSON Schema objects.

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func obj(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func objReq(properties map[string]any, required ...string) map[string]any {
	s := obj(properties)
	s["required"] = required
	return s
}
