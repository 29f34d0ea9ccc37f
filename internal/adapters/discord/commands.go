package discord

import "github.com/bwmarrin/discordgo"

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "lfg",
		Description: "Armá o sumate a una cola de jugadores",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Crear una cola nueva",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "game", Description: "Juego", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "players", Description: "Cuántos jugadores necesitás (te incluye)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "mode", Description: "Modo (ranked, casual...)"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "hours", Description: "Horas de disponibilidad (default 1)"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "Texto libre"},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "leave", Description: "Salir de tu cola"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "close", Description: "Cerrar tu cola (owner o admin)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "queue_id", Description: "Otra cola (solo admin/mod)"},
				}},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Ver las colas abiertas"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "info", Description: "Detalle de tu cola"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "describe", Description: "Editar la descripción de tu cola",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Nueva descripción", Required: true},
				}},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "role",
				Description: "Game roles de tu cola",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "add", Description: "Agregar un rol (ej: Tank x1)",
						Options: []*discordgo.ApplicationCommandOption{
							{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del rol", Required: true},
							{Type: discordgo.ApplicationCommandOptionInteger, Name: "max", Description: "Cupos (1-10)", Required: true},
						}},
					{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "remove", Description: "Sacar un rol",
						Options: []*discordgo.ApplicationCommandOption{
							{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del rol", Required: true},
						}},
					{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "assign", Description: "Tomar un rol en tu cola",
						Options: []*discordgo.ApplicationCommandOption{
							{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del rol", Required: true},
						}},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "search", Description: "Avisame cuando armen una cola así",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "game", Description: "Juego", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "hours", Description: "Por cuántas horas", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "mode", Description: "Modo"},
				}},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "cancelsearch", Description: "Cancelar tu búsqueda"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "board", Description: "Publicar el tablero de colas acá (admin)"},
		},
	},
}
