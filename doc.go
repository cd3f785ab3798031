/*
Package xray_launcher bootstraps xray inside a Pterodactyl game panel container.

# Structure 本项目结构

utils -> panel, netLayer, artifact -> configAdapter -> advLayer/ws -> machine -> cmd/xraylauncher

根项目 xray_launcher 只存放版本号. 代理本身由下载的 xray 完成, 本项目不转发任何流量.

# Lifecycle

cmd/xraylauncher 读取配置后交给 machine.M:

检测面板环境 (SERVER_IP, SERVER_PORT) -> 查询 ISP(仅用于显示) -> 下载 release 压缩包 ->
解压出 xray -> 生成 vless+ws 配置与分享链接 -> 以子进程运行 xray -> 收到信号后停止子进程并删除所有生成的文件.

TLS 在 CDN 边缘终结, 所以 xray 只监听明文 ws, 而分享链接的端口总是 443.
*/
package xray_launcher
